package main

import (
	"fmt"

	"github.com/ludo-technologies/linecheck/app"
	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/config"
	"github.com/ludo-technologies/linecheck/internal/rules"
	"github.com/ludo-technologies/linecheck/service"
	"github.com/spf13/cobra"
)

// ValidateCommand runs the rule catalog over build files
type ValidateCommand struct {
	bomPath         string
	failOnWarnings  bool
	parallel        bool
	maxWorkers      int
	includePatterns []string
	excludePatterns []string
	listRules       bool
	quiet           bool
	output          outputFlags
}

// NewValidateCommand creates a new validate command
func NewValidateCommand() *ValidateCommand {
	return &ValidateCommand{maxWorkers: config.DefaultMaxWorkers}
}

// CreateCobraCommand creates the cobra command for validation
func (c *ValidateCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [paths...]",
		Short: "Validate build files against the rule catalog",
		Long: `Validate one or more build files. Directories are searched recursively
for JSON documents matching the include patterns.

Every build is parsed strictly first; files that fail the schema are reported
with their issues and no rules run on them. Builds that parse are checked by
every rule in the catalog and reported with hard errors and warnings.

Exit codes:
  0: all builds valid
  1: at least one build has hard errors (or warnings with --fail-on-warnings)
  2: invalid input, unreadable files, schema failures or bad configuration

Examples:
  # Validate every build under menu/
  linecheck validate menu/

  # Check packaging coverage against a BOM
  linecheck validate --bom bom.yaml menu/

  # CI mode: warnings fail the run too
  linecheck validate --fail-on-warnings --json menu/

  # List the rule catalog
  linecheck validate --list-rules`,
		Args: cobra.ArbitraryArgs,
		RunE: c.runValidate,
	}

	cmd.Flags().StringVar(&c.bomPath, "bom", "", "BOM file (JSON or YAML) for coverage checks")
	cmd.Flags().BoolVar(&c.failOnWarnings, "fail-on-warnings", false, "Exit 1 when any warning is reported")
	cmd.Flags().BoolVar(&c.parallel, "parallel", false, "Evaluate the rules of each build concurrently")
	cmd.Flags().IntVar(&c.maxWorkers, "max-workers", config.DefaultMaxWorkers, "Number of builds validated at once")
	cmd.Flags().StringSliceVar(&c.includePatterns, "include", nil, "File patterns to include")
	cmd.Flags().StringSliceVar(&c.excludePatterns, "exclude", nil, "File patterns to exclude")
	cmd.Flags().BoolVar(&c.listRules, "list-rules", false, "Print the rule catalog and exit")
	cmd.Flags().BoolVarP(&c.quiet, "quiet", "q", false, "Suppress the progress bar")
	c.output.register(cmd, false)

	return cmd
}

func (c *ValidateCommand) overrides() config.Overrides {
	return config.Overrides{
		Parallel:        c.parallel,
		FailOnWarnings:  c.failOnWarnings,
		BOMPath:         c.bomPath,
		MaxWorkers:      c.maxWorkers,
		IncludePatterns: c.includePatterns,
		ExcludePatterns: c.excludePatterns,
	}
}

func (c *ValidateCommand) runValidate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}

	cfg, err := loadConfig(cmd, args[0], c.overrides())
	if err != nil {
		return err
	}
	format, outputPath, err := c.output.resolve(cmd, cfg, "validate")
	if err != nil {
		return err
	}

	if c.listRules {
		return service.WriteRuleCatalog(rules.Catalog(), format, cmd.OutOrStdout())
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	progress := service.NewProgressManager("Validating builds")
	if c.quiet {
		progress.SetWriter(nil)
	} else {
		progress.SetWriter(cmd.ErrOrStderr())
	}

	repo := service.NewBuildRepository()
	validator := service.NewValidationService(repo, service.NewBOMLoader()).
		WithLogger(logger).
		WithProgress(progress)

	uc, err := app.NewValidateUseCaseBuilder().
		WithService(validator).
		WithRepository(repo).
		WithFormatter(service.NewValidationFormatter(format == domain.OutputFormatText && service.IsInteractiveEnvironment())).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		Build()
	if err != nil {
		return err
	}

	req := domain.ValidationRequest{
		Paths:           args,
		IncludePatterns: cfg.Input.IncludePatterns,
		ExcludePatterns: cfg.Input.ExcludePatterns,
		BOMPath:         cfg.Validation.BOMPath,
		Parallel:        cfg.Validation.Parallel,
		MaxWorkers:      cfg.Validation.MaxWorkers,
		OutputFormat:    format,
		OutputWriter:    cmd.OutOrStdout(),
		OutputPath:      outputPath,
		FailOnWarnings:  cfg.Validation.FailOnWarnings,
	}

	resp, err := uc.Execute(cmd.Context(), req)
	if err != nil {
		return err
	}

	s := resp.Summary
	if s.SchemaFailed > 0 {
		return &exitError{code: ExitFailure, err: fmt.Errorf("%d build file(s) failed to parse", s.SchemaFailed), silent: true}
	}
	if uc.Failed(resp, req) {
		return violations(fmt.Errorf("%d invalid build(s), %d warning(s)", s.InvalidBuilds, s.Warnings))
	}
	return nil
}

// NewValidateCmd creates and returns the validate cobra command
func NewValidateCmd() *cobra.Command {
	return NewValidateCommand().CreateCobraCommand()
}
