package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/winestat/internal/phrases"
	"github.com/KaramelBytes/winestat/internal/report"
	"github.com/KaramelBytes/winestat/internal/table"
	"github.com/KaramelBytes/winestat/internal/utils"
)

var (
	phrThreshold        int
	phrGeneric          bool
	phrGenericThreshold int
	phrNoStem           bool
	phrNoCache          bool
	phrOutput           string
	phrAll              bool
)

var phrasesCmd = &cobra.Command{
	Use:   "phrases <table> <column>",
	Short: "Group near-duplicate labels of a column and write a canonicalized copy",
	Long: `Phrases scores every pair of distinct labels in the column, groups labels whose score reaches
--threshold and replaces each label by its group's canonical (shortest) label in
<table>_mapped_<column>. Mappings are cached under cache_dir unless --no-cache is set.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		opts := phrases.Options{
			Threshold:        c.PhraseThreshold,
			Generic:          c.PhraseGeneric,
			GenericThreshold: c.GenericThreshold,
			Stopwords:        stopwords(c),
			NoStem:           phrNoStem,
		}
		f := cmd.Flags()
		if f.Changed("threshold") {
			opts.Threshold = phrThreshold
		}
		if f.Changed("generic") {
			opts.Generic = phrGeneric
		}
		if f.Changed("generic-threshold") {
			opts.GenericThreshold = phrGenericThreshold
		}
		m, cache, err := newMapper(c, opts, !phrNoCache)
		if err != nil {
			return err
		}
		if cache != nil {
			defer cache.Close()
		}

		w, err := openWorkspace(cmd.Context(), "")
		if err != nil {
			return err
		}
		defer w.Close()
		in, err := w.reg.Lookup(args[0])
		if err != nil {
			return err
		}
		h, mapping, err := w.pipe.MapColumn(cmd.Context(), in, args[1], m)
		if err != nil {
			return err
		}
		if err := w.save(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if phrOutput != "" {
			data, err := utils.PrettyJSON(mapping)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(phrOutput, data); err != nil {
				return fmt.Errorf("write mapping: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote mapping to %s\n", phrOutput)
		}
		report.Table(out, mappingTable(mapping, phrAll), 0)
		fmt.Fprintf(out, "✓ Wrote %s (%d groups)\n", h.Name, mapping.Groups())
		return nil
	},
}

// mappingTable lists groups by canonical label; singletons only when all is set.
func mappingTable(m phrases.Mapping, all bool) *table.Table {
	t := table.New("mapping", []string{"canonical", "size", "members"})
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		members := m[k]
		if len(members) < 2 && !all {
			continue
		}
		t.Append(k, int64(len(members)), strings.Join(members, "; "))
	}
	return t
}

func init() {
	rootCmd.AddCommand(phrasesCmd)
	phrasesCmd.Flags().IntVar(&phrThreshold, "threshold", 85, "similarity score (0-100) needed to link two labels (default phrase_threshold)")
	phrasesCmd.Flags().BoolVar(&phrGeneric, "generic", false, "token-set scoring with broader groups (default phrase_generic)")
	phrasesCmd.Flags().IntVar(&phrGenericThreshold, "generic-threshold", 0, "generic mode: bound indirect members by their score against the seed (0 takes the full closure)")
	phrasesCmd.Flags().BoolVar(&phrNoStem, "no-stem", false, "disable stemming before scoring")
	phrasesCmd.Flags().BoolVar(&phrNoCache, "no-cache", false, "neither read nor write the mapping cache")
	phrasesCmd.Flags().StringVarP(&phrOutput, "output", "o", "", "optional path to write the mapping as JSON")
	phrasesCmd.Flags().BoolVar(&phrAll, "all", false, "also list single-member groups")
}
