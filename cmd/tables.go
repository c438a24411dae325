package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/winestat/internal/report"
	"github.com/KaramelBytes/winestat/internal/table"
)

var (
	showLimit  int
	queryLimit int
)

var showCmd = &cobra.Command{
	Use:   "show [table]",
	Short: "Print rows of a stored table",
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
		report.Table(cmd.OutOrStdout(), t, showLimit)
		return nil
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List stored tables with their kind and row count",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context(), "")
		if err != nil {
			return err
		}
		defer w.Close()
		ctx := cmd.Context()
		names, err := w.store.Tables(ctx)
		if err != nil {
			return err
		}
		list := table.New("tables", []string{"name", "kind", "rows", "source"})
		for _, name := range names {
			n, err := w.store.Count(ctx, name)
			if err != nil {
				return err
			}
			kind, source := "-", ""
			if h, err := w.reg.Lookup(name); err == nil {
				kind, source = string(h.Kind), h.Source
			}
			list.Append(name, kind, n, source)
		}
		out := cmd.OutOrStdout()
		if list.Len() == 0 {
			fmt.Fprintln(out, "No tables found")
			return nil
		}
		report.Table(out, list, 0)
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a read-only SQL query against the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context(), "")
		if err != nil {
			return err
		}
		defer w.Close()
		t, err := w.store.Query(cmd.Context(), "query", args[0])
		if err != nil {
			return err
		}
		report.Table(cmd.OutOrStdout(), t, queryLimit)
		return nil
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop <table...>",
	Short: "Drop stored tables and forget them in the manifest",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context(), "")
		if err != nil {
			return err
		}
		defer w.Close()
		ctx := cmd.Context()
		for _, name := range args {
			ok, err := w.store.Exists(ctx, name)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("table %q does not exist", name)
			}
			if err := w.store.DropTable(ctx, name); err != nil {
				return err
			}
			w.reg.Remove(name)
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Dropped %s\n", name)
		}
		return w.save()
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(dropCmd)
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "rows to print (0 = all)")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 50, "rows to print (0 = all)")
}
