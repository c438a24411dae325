package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/winestat/internal/report"
	"github.com/KaramelBytes/winestat/internal/topn"
)

var (
	topnScore  string
	topnCols   []string
	topnLimits []int
	topnKeep   []string
	topnAsc    bool
	topnLabel  bool
	topnPrint  int
)

var topnCmd = &cobra.Command{
	Use:   "topn <table>",
	Short: "Keep the top groups at each level of a column hierarchy",
	Long: `Topn ranks the groups of each column by score, keeps the best --limits at each level
(within each parent group for levels after the first) and writes
<table>_recurs_limit_<cols>_<limits>_<keep flags>. --keep t|f is given per level: f keeps
only the best-scoring row for each combination of the columns up to that level before the
level is ranked, t keeps duplicate rows.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, err := parseKeep(topnKeep)
		if err != nil {
			return err
		}
		spec, err := topn.NewSpec(topnScore, topnCols, topnLimits, keep, topnAsc)
		if err != nil {
			return err
		}
		w, err := openWorkspace(cmd.Context(), "")
		if err != nil {
			return err
		}
		defer w.Close()
		ctx := cmd.Context()
		in, err := w.reg.Lookup(args[0])
		if err != nil {
			return err
		}
		h, err := w.pipe.RecursiveTopN(ctx, in, spec)
		if err != nil {
			return err
		}
		name := h.Name
		if topnLabel {
			lh, err := w.pipe.Label(ctx, h, topnCols)
			if err != nil {
				return err
			}
			name = lh.Name
		}
		if err := w.save(); err != nil {
			return err
		}
		t, err := w.store.ReadTable(ctx, name)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		report.Table(out, t, topnPrint)
		fmt.Fprintf(out, "✓ Wrote %s (%d rows)\n", name, t.Len())
		return nil
	},
}

// parseKeep accepts t/f, true/false, y/n and 1/0 per level.
func parseKeep(vals []string) ([]bool, error) {
	out := make([]bool, len(vals))
	for i, v := range vals {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "t", "y", "yes":
			out[i] = true
		case "f", "n", "no":
			out[i] = false
		default:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("invalid --keep value %q (use t or f)", v)
			}
			out[i] = b
		}
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(topnCmd)
	topnCmd.Flags().StringVar(&topnScore, "score", "mean", "score column used for ranking")
	topnCmd.Flags().StringSliceVar(&topnCols, "cols", []string{"country", "province", "region_1"}, "hierarchy columns, outermost first")
	topnCmd.Flags().IntSliceVar(&topnLimits, "limits", []int{3, 2, 3}, "groups kept per level")
	topnCmd.Flags().StringSliceVar(&topnKeep, "keep", []string{"t", "t", "t"}, "per level: f drops rows repeating the columns up to that level, t keeps duplicates")
	topnCmd.Flags().BoolVar(&topnAsc, "asc", false, "rank ascending (lowest score first)")
	topnCmd.Flags().BoolVar(&topnLabel, "label", false, "also write a copy with a joined label column")
	topnCmd.Flags().IntVar(&topnPrint, "limit", 20, "rows to print (0 = all)")
}
