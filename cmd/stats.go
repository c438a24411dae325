package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/winestat/internal/report"
)

var (
	statsValue string
	statsBy    []string
	statsLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compute count/mean/std/min/quartiles/max of a value grouped by columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(statsBy) == 0 {
			return fmt.Errorf("--by requires at least one column")
		}
		w, err := openWorkspace(cmd.Context(), "")
		if err != nil {
			return err
		}
		defer w.Close()
		h, err := w.pipe.GroupedStats(cmd.Context(), statsValue, statsBy)
		if err != nil {
			return err
		}
		if err := w.save(); err != nil {
			return err
		}
		t, err := w.store.ReadTable(cmd.Context(), h.Name)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		report.Table(out, t, statsLimit)
		fmt.Fprintf(out, "✓ Wrote %s (%d groups)\n", h.Name, h.Rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsValue, "value", "price", "numeric column to summarize")
	statsCmd.Flags().StringSliceVar(&statsBy, "by", []string{"country"}, "group columns, comma-separated")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 20, "rows to print (0 = all)")
}
