package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/winestat/internal/report"
)

var (
	runSheet string
	runQuiet bool
)

var pipelineCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run the full exploration: load, frequencies, top-N, price statistics, hierarchical top-N",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context(), runSheet)
		if err != nil {
			return err
		}
		defer w.Close()
		path, err := dataFile(w, args)
		if err != nil {
			return err
		}
		sum, err := w.pipe.Run(cmd.Context(), path)
		if err != nil {
			return err
		}
		if err := w.save(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !runQuiet {
			printIngest(cmd, sum.Ingest)
			if sum.Label != nil {
				last, err := w.store.ReadTable(cmd.Context(), sum.Label.Name)
				if err != nil {
					return err
				}
				report.Table(out, last, 0)
			}
		}
		fmt.Fprintf(out, "✓ Run complete: %d frequency, %d top-N, %d statistics, %d hierarchical tables\n",
			len(sum.Frequency), len(sum.TopN), len(sum.Stats), len(sum.Recursive))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.Flags().StringVar(&runSheet, "sheet", "", "XLSX: sheet name to load (default first sheet)")
	pipelineCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "print only the summary line")
}
