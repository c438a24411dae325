package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/winestat/internal/validation"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// dirName is the per-user workspace under the home directory.
const dirName = ".winestat"

// Global configuration structure.
type Global struct {
	DBPath          string   `mapstructure:"db_path" yaml:"db_path"`
	DataFile        string   `mapstructure:"data_file" yaml:"data_file"`
	SourceTable     string   `mapstructure:"source_table" yaml:"source_table" validate:"required"`
	DropColumns     []string `mapstructure:"drop_columns" yaml:"drop_columns"`
	DropNullColumns []string `mapstructure:"drop_null_columns" yaml:"drop_null_columns"`
	FreqColumns     []string `mapstructure:"freq_columns" yaml:"freq_columns"`
	TopN            []int    `mapstructure:"top_n" yaml:"top_n" validate:"dive,gt=0"`

	// Phrase grouping
	PhraseThreshold  int      `mapstructure:"phrase_threshold" yaml:"phrase_threshold" validate:"gte=0,lte=100"`
	PhraseGeneric    bool     `mapstructure:"phrase_generic" yaml:"phrase_generic"`
	GenericThreshold int      `mapstructure:"generic_threshold" yaml:"generic_threshold" validate:"gte=0,lte=100"`
	Stopwords        []string `mapstructure:"stopwords" yaml:"stopwords"`

	// Mapping cache
	CacheBackend string `mapstructure:"cache_backend" yaml:"cache_backend" validate:"oneof=json file bolt bbolt"`
	CacheDir     string `mapstructure:"cache_dir" yaml:"cache_dir"`
	CachePersist bool   `mapstructure:"cache_persist" yaml:"cache_persist"`
	CacheVerify  bool   `mapstructure:"cache_verify" yaml:"cache_verify"`

	ManifestPath string `mapstructure:"manifest_path" yaml:"manifest_path"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"omitempty,oneof=console json"`
}

// Validate checks ranges and enumerations.
func (c *Global) Validate() error {
	return validation.Check(c, ErrInvalidConfig)
}

// Dir returns ~/.winestat.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.winestat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("WINESTAT")
	v.AutomaticEnv()

	v.SetDefault("db_path", "")
	v.SetDefault("data_file", "")
	v.SetDefault("source_table", "wine_init")
	v.SetDefault("drop_columns", []string{"", "Unnamed: 0"})
	v.SetDefault("drop_null_columns", []string{"country", "price", "province", "variety"})
	v.SetDefault("freq_columns", []string{"country", "designation", "points", "province", "region_1",
		"region_2", "taster_name", "taster_twitter_handle", "variety", "winery"})
	v.SetDefault("top_n", []int{5, 10, 20})
	// Phrase grouping defaults
	v.SetDefault("phrase_threshold", 85)
	v.SetDefault("phrase_generic", false)
	v.SetDefault("generic_threshold", 0)
	v.SetDefault("stopwords", []string{})
	// Cache defaults
	v.SetDefault("cache_backend", "json")
	v.SetDefault("cache_dir", "")
	v.SetDefault("cache_persist", true)
	v.SetDefault("cache_verify", false)
	v.SetDefault("manifest_path", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve workspace paths under ~/.winestat
	if c.DBPath == "" {
		c.DBPath = filepath.Join(dir, "winestat.duckdb")
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(dir, "cache")
	}
	if c.ManifestPath == "" {
		c.ManifestPath = filepath.Join(dir, "manifest.json")
	}
	return &c, nil
}
