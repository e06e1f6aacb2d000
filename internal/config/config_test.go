package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Validation.Parallel)
	assert.False(t, cfg.Validation.FailOnWarnings)
	assert.Empty(t, cfg.Validation.BOMPath)
	assert.Equal(t, DefaultMaxWorkers, cfg.Validation.MaxWorkers)
	assert.Equal(t, 96, cfg.Query.LabelWidth)
	assert.Equal(t, []string{"**/*.json"}, cfg.Input.IncludePatterns)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name          string
		modify        func(*Config)
		errorContains string
	}{
		{"ZeroWorkers", func(c *Config) { c.Validation.MaxWorkers = 0 }, "max_workers must be >= 1"},
		{"NarrowLabels", func(c *Config) { c.Query.LabelWidth = 3 }, "label_width must be >= 8"},
		{"BadFormat", func(c *Config) { c.Output.Format = "xml" }, "invalid output.format 'xml'"},
		{"NoIncludes", func(c *Config) { c.Input.IncludePatterns = nil }, "include_patterns cannot be empty"},
		{"NoAddr", func(c *Config) { c.Server.Addr = " " }, "server.addr cannot be empty"},
		{"BadLevel", func(c *Config) { c.Logging.Level = "trace" }, "invalid logging.level 'trace'"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errorContains)
		})
	}
}

func TestLoadConfig_DiscoversUpward(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "menu", "bowls")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	content := `
[validation]
parallel = true
fail_on_warnings = true
bom_path = "bom.yaml"
max_workers = 8

[query]
label_width = 40

[output]
format = "json"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(content), 0o644))

	assert.Equal(t, filepath.Join(root, ConfigFileName), FindConfigFile(nested))

	cfg, err := LoadConfig("", nested)
	require.NoError(t, err)
	assert.True(t, cfg.Validation.Parallel)
	assert.True(t, cfg.Validation.FailOnWarnings)
	assert.Equal(t, "bom.yaml", cfg.Validation.BOMPath)
	assert.Equal(t, 8, cfg.Validation.MaxWorkers)
	assert.Equal(t, 40, cfg.Query.LabelWidth)
	assert.Equal(t, "json", cfg.Output.Format)
	// untouched sections keep their defaults
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"**/*.json"}, cfg.Input.IncludePatterns)
}

func TestLoadConfig_NoFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"xml\"\n"), 0o644))

	_, err := LoadConfig(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"), "")
	assert.Error(t, err)
}

func TestGenerateDefaultConfigTOML_RoundTrips(t *testing.T) {
	text, err := GenerateDefaultConfigTOML()
	require.NoError(t, err)
	assert.Contains(t, text, "[validation]")
	assert.Contains(t, text, `include_patterns = ["**/*.json"]`)

	cfg, err := LoadDefaultConfigFromTOML()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, WriteDefaultConfig(path, false))

	err := WriteDefaultConfig(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.NoError(t, WriteDefaultConfig(path, true))

	cfg, err := LoadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyOverrides(Overrides{
		Parallel:        true,
		MaxWorkers:      16,
		Format:          "yaml",
		BOMPath:         "ignored.json",
		IncludePatterns: []string{"builds/*.json"},
	}, map[string]bool{
		"parallel": true,
		"format":   true,
		"include":  true,
	})

	assert.True(t, cfg.Validation.Parallel)
	assert.Equal(t, DefaultMaxWorkers, cfg.Validation.MaxWorkers, "unset flags keep config values")
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Empty(t, cfg.Validation.BOMPath)
	assert.Equal(t, []string{"builds/*.json"}, cfg.Input.IncludePatterns)
}
