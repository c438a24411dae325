package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/winestat/internal/registry"
	"github.com/KaramelBytes/winestat/internal/report"
)

var (
	freqTopN  []int
	freqLimit int
)

var freqCmd = &cobra.Command{
	Use:   "freq [column...]",
	Short: "Build frequency tables and their top-N-plus-Other variants",
	Long: `Freq counts the values of each column of the source table into freq_<column>, then writes
freq_<column>_top_<n> for every --top value with the remaining counts folded into "Other".
Without columns the freq_columns from config are used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context(), "")
		if err != nil {
			return err
		}
		defer w.Close()
		ctx := cmd.Context()

		var freqs []*registry.Handle
		if len(args) == 0 {
			freqs, err = w.pipe.FrequencyTables(ctx)
			if err != nil {
				return err
			}
		} else {
			src, err := w.store.ReadTable(ctx, w.cfg.SourceTable)
			if err != nil {
				return err
			}
			for _, col := range args {
				h, err := w.pipe.Frequency(ctx, src, col)
				if err != nil {
					return err
				}
				freqs = append(freqs, h)
			}
		}
		ns := freqTopN
		if !cmd.Flags().Changed("top") {
			ns = w.cfg.TopN
		}
		tops, err := w.pipe.TopNTables(ctx, freqs, ns)
		if err != nil {
			return err
		}
		if err := w.save(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			t, err := w.store.ReadTable(ctx, freqs[0].Name)
			if err != nil {
				return err
			}
			report.Table(out, t, freqLimit)
		}
		fmt.Fprintf(out, "✓ Wrote %d frequency tables and %d top-N tables\n", len(freqs), len(tops))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(freqCmd)
	freqCmd.Flags().IntSliceVar(&freqTopN, "top", nil, "top-N sizes (default top_n from config)")
	freqCmd.Flags().IntVar(&freqLimit, "limit", 20, "rows to print when a single column is given (0 = all)")
}
