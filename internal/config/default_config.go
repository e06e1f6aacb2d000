package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/pelletier/go-toml/v2"
)

// defaultConfigTmpl contains the embedded default configuration template
//
//go:embed default_config.toml.tmpl
var defaultConfigTmpl string

// DefaultConfigValues holds all values used to render the default config template.
// All values are sourced from DefaultConfig to keep a single source of truth.
type DefaultConfigValues struct {
	Parallel        bool
	FailOnWarnings  bool
	BOMPath         string
	MaxWorkers      int
	LabelWidth      int
	IncludePatterns string
	ExcludePatterns string
	Format          string
	Addr            string
	LogLevel        string
}

func newDefaultConfigValues() DefaultConfigValues {
	d := DefaultConfig()
	return DefaultConfigValues{
		Parallel:        d.Validation.Parallel,
		FailOnWarnings:  d.Validation.FailOnWarnings,
		BOMPath:         d.Validation.BOMPath,
		MaxWorkers:      d.Validation.MaxWorkers,
		LabelWidth:      d.Query.LabelWidth,
		IncludePatterns: tomlStringList(d.Input.IncludePatterns),
		ExcludePatterns: tomlStringList(d.Input.ExcludePatterns),
		Format:          d.Output.Format,
		Addr:            d.Server.Addr,
		LogLevel:        d.Logging.Level,
	}
}

func tomlStringList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return strings.Join(quoted, ", ")
}

// GenerateDefaultConfigTOML renders the default config template and returns
// the resulting TOML string.
func GenerateDefaultConfigTOML() (string, error) {
	tmpl, err := template.New("default_config").Parse(defaultConfigTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse default config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newDefaultConfigValues()); err != nil {
		return "", fmt.Errorf("failed to render default config template: %w", err)
	}

	return buf.String(), nil
}

// LoadDefaultConfigFromTOML parses the rendered default config back into a Config
func LoadDefaultConfigFromTOML() (*Config, error) {
	configTOML, err := GenerateDefaultConfigTOML()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal([]byte(configTOML), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse default config: %w", err)
	}
	return cfg, nil
}

// WriteDefaultConfig writes the default configuration to path. An existing
// file is only replaced when force is set.
func WriteDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	content, err := GenerateDefaultConfigTOML()
	if err != nil {
		return err
	}
	if err := toml.Unmarshal([]byte(content), DefaultConfig()); err != nil {
		return fmt.Errorf("generated config is not valid TOML: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
