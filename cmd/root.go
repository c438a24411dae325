package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/winestat/internal/config"
	"github.com/KaramelBytes/winestat/internal/logging"
	"github.com/KaramelBytes/winestat/internal/utils"
)

// projectConfigName is looked up from the working directory upwards when
// --config is not given.
const projectConfigName = ".winestat.yaml"

var (
	// Global flags
	cfgFile string
	debug   bool
	dbPath  string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "winestat",
	Short: "winestat: exploratory analysis of wine-review datasets",
	Long: `winestat loads a wine-review CSV or XLSX file into an embedded DuckDB database and builds
null reports, frequency tables, grouped price statistics, hierarchical top-N selections,
phrase-grouped label mappings and per-group word frequencies from it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.winestat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "DuckDB database file (overrides db_path)")
}

func loadConfig() {
	cfg = nil
	c, err := cfgpkg.Load(configPath())
	if err != nil {
		// Non-fatal: config commands can still report the problem
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	if rootCmd.PersistentFlags().Changed("db") && dbPath != "" {
		cfg.DBPath = dbPath
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level, Format: cfg.LogFormat, Output: os.Stderr})
}

// currentConfig returns the loaded configuration after validating it.
func currentConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		c, err := cfgpkg.Load(configPath())
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPath returns --config, or the nearest project config file, or "" for
// ~/.winestat/config.yaml.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	p, err := utils.FindUp(wd, projectConfigName)
	if err != nil {
		return ""
	}
	return p
}
