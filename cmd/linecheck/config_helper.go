package main

import (
	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/config"
	"github.com/ludo-technologies/linecheck/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// GetExplicitFlags extracts which flags were explicitly set from a cobra command
func GetExplicitFlags(cmd *cobra.Command) map[string]bool {
	explicitFlags := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().Visit(func(f *pflag.Flag) {
			explicitFlags[f.Name] = true
		})
	}
	return explicitFlags
}

// loadConfig reads the configuration for target and layers explicitly set
// flags on top of it.
func loadConfig(cmd *cobra.Command, target string, o config.Overrides) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath, target)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration", err)
	}

	o.LogLevel, _ = cmd.Flags().GetString("log-level")
	cfg.ApplyOverrides(o, GetExplicitFlags(cmd))
	if err := cfg.Validate(); err != nil {
		return nil, domain.NewConfigError("invalid configuration", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := service.NewLogger(cfg.Logging)
	if err != nil {
		return nil, domain.NewConfigError("failed to create logger", err)
	}
	return logger, nil
}

// outputFlags are the format and destination flags shared by report commands
type outputFlags struct {
	json      bool
	yaml      bool
	csv       bool
	dot       bool
	outputDir string
}

func (f *outputFlags) register(cmd *cobra.Command, withDOT bool) {
	cmd.Flags().BoolVar(&f.json, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&f.yaml, "yaml", false, "Output YAML")
	cmd.Flags().BoolVar(&f.csv, "csv", false, "Output CSV")
	if withDOT {
		cmd.Flags().BoolVar(&f.dot, "dot", false, "Output Graphviz DOT")
	}
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "Write the report into this directory instead of stdout")
}

// resolve returns the selected format and the report path ("" for stdout)
func (f *outputFlags) resolve(cmd *cobra.Command, cfg *config.Config, command string) (domain.OutputFormat, string, error) {
	format, err := service.NewOutputFormatResolver().Determine(f.json, f.yaml, f.csv, f.dot, cfg.Output.Format)
	if err != nil {
		return "", "", domain.NewInvalidInputError("invalid output flags", err)
	}
	dir := cfg.Output.Directory
	if cmd.Flags().Changed("output-dir") {
		dir = f.outputDir
	}
	return format, service.ReportPath(dir, command, format), nil
}
