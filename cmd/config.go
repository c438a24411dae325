package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/winestat/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set winestat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "db_path: %s\n", cfg.DBPath)
		if cfg.DataFile != "" {
			fmt.Fprintf(out, "data_file: %s\n", cfg.DataFile)
		}
		fmt.Fprintf(out, "source_table: %s\n", cfg.SourceTable)
		fmt.Fprintf(out, "drop_columns: %s\n", quoteList(cfg.DropColumns))
		fmt.Fprintf(out, "drop_null_columns: %s\n", strings.Join(cfg.DropNullColumns, ","))
		fmt.Fprintf(out, "freq_columns: %s\n", strings.Join(cfg.FreqColumns, ","))
		fmt.Fprintf(out, "top_n: %s\n", joinInts(cfg.TopN))
		fmt.Fprintf(out, "phrase_threshold: %d\n", cfg.PhraseThreshold)
		fmt.Fprintf(out, "phrase_generic: %t\n", cfg.PhraseGeneric)
		fmt.Fprintf(out, "generic_threshold: %d\n", cfg.GenericThreshold)
		if len(cfg.Stopwords) > 0 {
			fmt.Fprintf(out, "stopwords: %s\n", strings.Join(cfg.Stopwords, ","))
		}
		fmt.Fprintf(out, "cache_backend: %s\n", cfg.CacheBackend)
		fmt.Fprintf(out, "cache_dir: %s\n", cfg.CacheDir)
		fmt.Fprintf(out, "cache_persist: %t\n", cfg.CachePersist)
		fmt.Fprintf(out, "cache_verify: %t\n", cfg.CacheVerify)
		fmt.Fprintf(out, "manifest_path: %s\n", cfg.ManifestPath)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set updates one key. List keys (drop_columns, drop_null_columns, freq_columns, top_n,
stopwords) take comma-separated values.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(configPath())
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "db_path":
			cfg.DBPath = val
		case "data_file":
			cfg.DataFile = val
		case "source_table":
			cfg.SourceTable = val
		case "drop_columns":
			cfg.DropColumns = splitList(val)
		case "drop_null_columns":
			cfg.DropNullColumns = splitList(val)
		case "freq_columns":
			cfg.FreqColumns = splitList(val)
		case "stopwords":
			cfg.Stopwords = splitList(val)
		case "top_n":
			var ns []int
			for _, s := range splitList(val) {
				n, err := strconv.Atoi(s)
				if err != nil {
					return fmt.Errorf("invalid int for top_n: %v", s)
				}
				ns = append(ns, n)
			}
			cfg.TopN = ns
		case "phrase_threshold", "generic_threshold":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for %s: %w", key, err)
			}
			if key == "phrase_threshold" {
				cfg.PhraseThreshold = i
			} else {
				cfg.GenericThreshold = i
			}
		case "phrase_generic", "cache_persist", "cache_verify":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for %s: %w", key, err)
			}
			switch key {
			case "phrase_generic":
				cfg.PhraseGeneric = b
			case "cache_persist":
				cfg.CachePersist = b
			default:
				cfg.CacheVerify = b
			}
		case "cache_backend":
			cfg.CacheBackend = strings.ToLower(val)
		case "cache_dir":
			cfg.CacheDir = val
		case "manifest_path":
			cfg.ManifestPath = val
		case "log_level":
			cfg.LogLevel = strings.ToLower(val)
		case "log_format":
			cfg.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, configPath()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func quoteList(ss []string) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = strconv.Quote(s)
	}
	return strings.Join(parts, ",")
}
