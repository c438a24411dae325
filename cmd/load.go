package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/winestat/internal/analysis"
	"github.com/KaramelBytes/winestat/internal/pipeline"
)

var loadSheet string

var loadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load a CSV/XLSX file as the source table, dropping rows with nulls",
	Long: `Load reads the file (or data_file from config), reports nulls, removes rows with a null in any
drop_null_columns column and stores the result as source_table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context(), loadSheet)
		if err != nil {
			return err
		}
		defer w.Close()
		path, err := dataFile(w, args)
		if err != nil {
			return err
		}
		res, err := w.pipe.Ingest(cmd.Context(), path)
		if err != nil {
			return err
		}
		if err := w.save(); err != nil {
			return err
		}
		printIngest(cmd, res)
		return nil
	},
}

var nullsCmd = &cobra.Command{
	Use:   "nulls [table]",
	Short: "Show null counts per column of a stored table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context(), "")
		if err != nil {
			return err
		}
		defer w.Close()
		t, err := w.store.ReadTable(cmd.Context(), w.table(args))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), analysis.Nulls(t).Markdown())
		return nil
	},
}

// dataFile resolves the input file argument, falling back to data_file.
func dataFile(w *workspace, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if w.cfg.DataFile == "" {
		return "", fmt.Errorf("no input file: pass one or set data_file")
	}
	return w.cfg.DataFile, nil
}

func printIngest(cmd *cobra.Command, res *pipeline.IngestResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Before.Markdown())
	fmt.Fprintln(out, res.After.Markdown())
	fmt.Fprintf(out, "✓ Loaded %s: %d rows kept, %d dropped (%.2f%%)\n",
		res.Handle.Name, res.Handle.Rows, res.Dropped, res.DroppedPct())
}

func init() {
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(nullsCmd)
	loadCmd.Flags().StringVar(&loadSheet, "sheet", "", "XLSX: sheet name to load (default first sheet)")
}
