package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/winestat/internal/phrases"
	"github.com/KaramelBytes/winestat/internal/pipeline"
	"github.com/KaramelBytes/winestat/internal/report"
)

var (
	wordsBy         []string
	wordsText       string
	wordsMeasure    string
	wordsMeasureCol string
	wordsN          int
	wordsAsc        bool
	wordsPerGroup   int
	wordsStem       bool
)

var wordsCmd = &cobra.Command{
	Use:   "words",
	Short: "Count words of a text column per group",
	Long: `Words tokenizes the text column of the source table (lowercased, accents folded, stopwords
removed) and counts words per group. With --measure only the top --n groups of that table by
--measure-col are kept, matched on the group columns.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context(), "")
		if err != nil {
			return err
		}
		defer w.Close()
		q := pipeline.WordQuery{
			GroupCols:     wordsBy,
			TextCol:       wordsText,
			Measure:       wordsMeasure,
			MeasureCol:    wordsMeasureCol,
			N:             wordsN,
			Ascending:     wordsAsc,
			WordsPerGroup: wordsPerGroup,
		}
		norm := phrases.NewNormalizer(stopwords(w.cfg), wordsStem)
		groups, h, err := w.pipe.WordFrequencies(cmd.Context(), q, norm)
		if err != nil {
			return err
		}
		if err := w.save(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		report.Words(out, groups, wordsPerGroup)
		fmt.Fprintf(out, "✓ Wrote %s (%d groups)\n", h.Name, len(groups))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wordsCmd)
	wordsCmd.Flags().StringSliceVar(&wordsBy, "by", []string{"country"}, "group columns, comma-separated")
	wordsCmd.Flags().StringVar(&wordsText, "text", "description", "text column to tokenize")
	wordsCmd.Flags().StringVar(&wordsMeasure, "measure", "", "table ranking the groups (e.g. a stats table)")
	wordsCmd.Flags().StringVar(&wordsMeasureCol, "measure-col", "mean", "column of --measure used for ranking")
	wordsCmd.Flags().IntVar(&wordsN, "n", 10, "groups kept when --measure is set")
	wordsCmd.Flags().BoolVar(&wordsAsc, "asc", false, "keep the lowest-ranked groups instead")
	wordsCmd.Flags().IntVar(&wordsPerGroup, "per-group", 10, "words kept per group (0 = all)")
	wordsCmd.Flags().BoolVar(&wordsStem, "stem", false, "stem words before counting")
}
