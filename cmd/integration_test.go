package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const reviewsCSV = `,country,description,designation,points,price,province,region_1,variety,winery
0,Italy,"Aromas include tropical fruit, broom.",Vulkà Bianco,87,,Sicily & Sardinia,Etna,White Blend,Nicosia
1,Portugal,"Ripe and fruity, a smooth wine.",Avidagos,87,15,Douro,,Portuguese Red,Quinta dos Avidagos
2,US,"Tart and snappy, lime flesh and rind.",,87,14,Oregon,Willamette Valley,Pinot Gris,Rainstorm
3,US,"Pineapple rind, lemon pith.",Reserve Late Harvest,87,13,Michigan,Lake Michigan Shore,Riesling,St. Julian
4,US,"Much like the regular bottling.",Vintner's Reserve,87,65,Oregon,Willamette Valley,Pinot Noir,Sweet Cheeks
5,Spain,"Blackberry and raspberry aromas.",Ars In Vitro,87,15,Northern Spain,Navarra,Tempranillo-Merlot,Tandem
6,Italy,"Here's a bright, informal red.",Belsito,87,16,Sicily & Sardinia,Vittoria,Frappato,Terre di Giurfo
7,France,"This dry and restrained wine.",,87,24,Alsace,Alsace,Gewürztraminer,Trimbach
8,US,"Savory dried thyme notes.",,87,12,California,Napa Valley,Cabernet Sauvignon,Kirkland
9,,"Unknown origin wine.",,85,30,,,,Mystery
`

// resetFlags restores every flag to its default. Slice values keep appending
// once set, so each slice flag should be passed explicitly by one test only.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(defaultSlice(fl.DefValue))
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func defaultSlice(def string) []string {
	def = strings.Trim(def, "[]")
	if def == "" {
		return []string{}
	}
	return strings.Split(def, ",")
}

// execute runs the root command with args and returns its stdout.
func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func setupWorkspace(t *testing.T) (db, csv string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	csv = filepath.Join(home, "winemag.csv")
	if err := os.WriteFile(csv, []byte(reviewsCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(home, "data", "wine.duckdb"), csv
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Fatalf("output missing %q:\n%s", w, out)
		}
	}
}

func TestCLI_RunThenInspect(t *testing.T) {
	db, csv := setupWorkspace(t)

	out := runCmd(t, "--db", db, "run", csv)
	assertContains(t, out,
		"Rows: 10",
		"Rows: 8",
		"2 dropped (20.00%)",
		"✓ Run complete: 7 frequency, 21 top-N, 4 statistics, 2 hierarchical tables",
	)

	out = runCmd(t, "--db", db, "tables")
	assertContains(t, out, "freq_country_top_5", "top_n", "wine_init", "source")

	out = runCmd(t, "--db", db, "show", "freq_country")
	assertContains(t, out, "US", "France")

	out = runCmd(t, "--db", db, "nulls")
	assertContains(t, out, "[NULL SUMMARY]", "Table: wine_init", "Rows: 8")

	out = runCmd(t, "--db", db, "query", "SELECT count(*) AS n FROM wine_init")
	assertContains(t, out, "8")

	out = runCmd(t, "--db", db, "drop", "freq_points")
	assertContains(t, out, "✓ Dropped freq_points")
	if _, err := execute("--db", db, "show", "freq_points"); err == nil {
		t.Fatalf("expected error showing a dropped table")
	}
	if _, err := execute("--db", db, "drop", "freq_points"); err == nil {
		t.Fatalf("expected error dropping a missing table")
	}
}

func TestCLI_StageCommands(t *testing.T) {
	db, csv := setupWorkspace(t)

	out := runCmd(t, "--db", db, "load", csv)
	assertContains(t, out, "✓ Loaded wine_init: 8 rows kept, 2 dropped (20.00%)")

	out = runCmd(t, "--db", db, "freq", "country", "--top", "2")
	assertContains(t, out, "US", "✓ Wrote 1 frequency tables and 1 top-N tables")
	out = runCmd(t, "--db", db, "show", "freq_country_top_2")
	assertContains(t, out, "Other")

	out = runCmd(t, "--db", db, "stats")
	assertContains(t, out, "✓ Wrote price_basic_stats_grouped_by_country (5 groups)")

	out = runCmd(t, "--db", db, "stats", "--by", "country,province,region_1")
	assertContains(t, out, "price_basic_stats_grouped_by_country_province_region_1 (6 groups)")

	out = runCmd(t, "--db", db, "topn", "price_basic_stats_grouped_by_country_province_region_1", "--label")
	assertContains(t, out,
		"_recurs_limit_country_province_region_1_3_2_3_ttt_labelled (4 rows)",
		"US / Oregon / Willamette Valley",
	)
	out = runCmd(t, "--db", db, "tables")
	assertContains(t, out, "recursive_top_n", "labelled")

	out = runCmd(t, "--db", db, "words", "--measure", "price_basic_stats_grouped_by_country", "--n", "2")
	assertContains(t, out, "rind(2)", "✓ Wrote words_by_country (2 groups)")

	out = runCmd(t, "--db", db, "phrases", "wine_init", "variety", "--no-stem", "--all")
	assertContains(t, out, "Riesling", "✓ Wrote wine_init_mapped_variety")

	out = runCmd(t, "--db", db, "describe", "--sample-rows", "0")
	assertContains(t, out, "[DATASET SUMMARY]", "Rows: 8")

	md := filepath.Join(t.TempDir(), "raw.md")
	out = runCmd(t, "--db", db, "describe", csv, "--output", md)
	assertContains(t, out, "✓ Wrote description to")
	b, err := os.ReadFile(md)
	if err != nil {
		t.Fatalf("read description: %v", err)
	}
	assertContains(t, string(b), "Rows: 10")
}

func TestCLI_Errors(t *testing.T) {
	db, _ := setupWorkspace(t)

	if _, err := execute("--db", db, "load"); err == nil || !strings.Contains(err.Error(), "no input file") {
		t.Fatalf("expected missing input error, got %v", err)
	}
	if _, err := execute("--db", db, "show", "nope"); err == nil {
		t.Fatalf("expected error for unknown table")
	}
	_, err := execute("--db", db, "topn", "whatever", "--keep", "t,maybe,f")
	if err == nil || !strings.Contains(err.Error(), "invalid --keep") {
		t.Fatalf("expected --keep error, got %v", err)
	}
	_, err = execute("--db", db, "topn", "whatever", "--limits", "3,0,2")
	if err == nil || !strings.Contains(err.Error(), "invalid top-n spec") {
		t.Fatalf("expected invalid spec error, got %v", err)
	}
	_, err = execute("--db", db, "topn", "whatever")
	if err == nil || !strings.Contains(err.Error(), "table not registered: whatever") {
		t.Fatalf("expected unregistered table error, got %v", err)
	}
	_, err = execute("--db", db, "phrases", "whatever", "variety")
	if err == nil || !strings.Contains(err.Error(), "table not registered: whatever") {
		t.Fatalf("expected unregistered table error, got %v", err)
	}
}

func TestCLI_TopNKeepHelp(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out := runCmd(t, "topn", "--help")
	assertContains(t, out,
		"only the best-scoring row for each combination",
		"t keeps duplicate rows",
		"f drops rows repeating the columns up to that level, t keeps duplicates",
	)
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "cfg", "config.yaml")

	out := runCmd(t, "--config", path, "config", "set", "phrase_threshold", "70")
	assertContains(t, out, "Saved config")
	runCmd(t, "--config", path, "config", "set", "top_n", "3,7")

	out = runCmd(t, "--config", path, "config", "show")
	assertContains(t, out, "phrase_threshold: 70", "top_n: 3,7", "source_table: wine_init")

	if _, err := execute("--config", path, "config", "set", "phrase_threshold", "150"); err == nil {
		t.Fatalf("expected validation error for threshold 150")
	}
	if _, err := execute("--config", path, "config", "set", "bogus", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
