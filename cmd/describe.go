package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/winestat/internal/analysis"
	"github.com/KaramelBytes/winestat/internal/table"
	"github.com/KaramelBytes/winestat/internal/utils"
)

var (
	descOutputPath string
	descSampleRows int
	descTopValues  int
	descGroupBy    []string
	descCorr       bool
	descOutliers   bool
	descOutlierThr float64
	descSheet      string
)

var describeCmd = &cobra.Command{
	Use:   "describe [table|file]",
	Short: "Summarize a stored table or a CSV/XLSX file as Markdown",
	Long: `Describe infers column kinds and prints counts, numeric statistics, top categorical values,
optional per-group summaries, correlations and robust outlier counts. The argument is read as a
file when it exists on disk, otherwise as a table name; it defaults to the source table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := analysis.DefaultOptions()
		if descSampleRows >= 0 {
			opt.SampleRows = descSampleRows
		}
		if descTopValues > 0 {
			opt.TopValues = descTopValues
		}
		opt.GroupBy = descGroupBy
		opt.Correlations = descCorr
		opt.Outliers = descOutliers
		if descOutlierThr > 0 {
			opt.OutlierThreshold = descOutlierThr
		}

		w, err := openWorkspace(cmd.Context(), descSheet)
		if err != nil {
			return err
		}
		defer w.Close()

		var t *table.Table
		if len(args) == 1 && utils.FileExists(args[0]) {
			t, err = w.pipe.ReadSource(args[0])
		} else {
			t, err = w.store.ReadTable(cmd.Context(), w.table(args))
		}
		if err != nil {
			return err
		}
		rep, err := analysis.Describe(t, opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()

		if descOutputPath != "" {
			if err := os.WriteFile(descOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote description to %s\n", descOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the description (Markdown)")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of sample rows to include")
	describeCmd.Flags().IntVar(&descTopValues, "top-values", 8, "top categorical values listed per column")
	describeCmd.Flags().StringSliceVar(&descGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	describeCmd.Flags().BoolVar(&descCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().BoolVar(&descOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	describeCmd.Flags().Float64Var(&descOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	describeCmd.Flags().StringVar(&descSheet, "sheet", "", "XLSX: sheet name when describing a workbook")
}
