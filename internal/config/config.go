package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ludo-technologies/linecheck/internal/query"
	"github.com/spf13/viper"
)

// ConfigFileName is the dedicated configuration file discovered upward from the target directory
const ConfigFileName = ".linecheck.toml"

// Default validation settings
const (
	// DefaultMaxWorkers bounds concurrent build validation in batch runs
	DefaultMaxWorkers = 4

	// DefaultServerAddr is the listen address of the HTTP API
	DefaultServerAddr = ":8080"

	// DefaultLogLevel is the minimum zap level that is emitted
	DefaultLogLevel = "info"
)

// Config represents the main configuration structure
type Config struct {
	// Validation holds rule execution settings
	Validation ValidationConfig `mapstructure:"validation" toml:"validation"`

	// Query holds query output settings
	Query QueryConfig `mapstructure:"query" toml:"query"`

	// Input holds build file discovery settings
	Input InputConfig `mapstructure:"input" toml:"input"`

	// Output holds output formatting configuration
	Output OutputConfig `mapstructure:"output" toml:"output"`

	// Server holds HTTP API settings
	Server ServerConfig `mapstructure:"server" toml:"server"`

	// Logging holds logger settings
	Logging LoggingConfig `mapstructure:"logging" toml:"logging"`
}

// ValidationConfig holds configuration for the rule catalog run
type ValidationConfig struct {
	// Parallel evaluates the rules of a single build concurrently
	Parallel bool `mapstructure:"parallel" toml:"parallel"`

	// FailOnWarnings makes warnings fail a run the same way hard errors do
	FailOnWarnings bool `mapstructure:"fail_on_warnings" toml:"fail_on_warnings"`

	// BOMPath points at a BOM list used for coverage checks; empty disables them
	BOMPath string `mapstructure:"bom_path" toml:"bom_path"`

	// MaxWorkers bounds how many builds are validated at once
	MaxWorkers int `mapstructure:"max_workers" toml:"max_workers"`
}

// QueryConfig holds configuration for query output
type QueryConfig struct {
	// LabelWidth caps step labels in runes
	LabelWidth int `mapstructure:"label_width" toml:"label_width"`
}

// InputConfig holds configuration for build file discovery
type InputConfig struct {
	// IncludePatterns specifies file patterns to include
	IncludePatterns []string `mapstructure:"include_patterns" toml:"include_patterns"`

	// ExcludePatterns specifies file patterns to exclude
	ExcludePatterns []string `mapstructure:"exclude_patterns" toml:"exclude_patterns"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv
	Format string `mapstructure:"format" toml:"format"`

	// Directory receives report files; empty means stdout
	Directory string `mapstructure:"directory" toml:"directory"`
}

// ServerConfig holds configuration for the HTTP API
type ServerConfig struct {
	Addr string `mapstructure:"addr" toml:"addr"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level" toml:"level"`

	// Development switches to the human-readable console encoder
	Development bool `mapstructure:"development" toml:"development"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Validation: ValidationConfig{
			Parallel:       false,
			FailOnWarnings: false,
			MaxWorkers:     DefaultMaxWorkers,
		},
		Query: QueryConfig{
			LabelWidth: query.LabelWidth,
		},
		Input: InputConfig{
			IncludePatterns: []string{"**/*.json"},
			ExcludePatterns: []string{"**/node_modules/**", "**/.git/**", "**/bom*.json"},
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// LoadConfig loads configuration from configPath, or from the nearest
// .linecheck.toml above startDir when configPath is empty. Defaults are
// returned when no file exists.
func LoadConfig(configPath, startDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = FindConfigFile(startDir)
	}
	if configPath == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	if filepath.Ext(configPath) == "" {
		v.SetConfigType("toml")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FindConfigFile walks up the directory tree from startDir looking for
// .linecheck.toml. It returns "" when none is found.
func FindConfigFile(startDir string) string {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Validation.MaxWorkers < 1 {
		return fmt.Errorf("validation.max_workers must be >= 1, got %d", c.Validation.MaxWorkers)
	}

	if c.Query.LabelWidth < 8 {
		return fmt.Errorf("query.label_width must be >= 8, got %d", c.Query.LabelWidth)
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"yaml": true,
		"csv":  true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, csv", c.Output.Format)
	}

	if len(c.Input.IncludePatterns) == 0 {
		return errors.New("input.include_patterns cannot be empty")
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr cannot be empty")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}

	return nil
}
