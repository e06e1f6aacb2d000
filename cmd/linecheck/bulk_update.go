package main

import (
	"fmt"

	"github.com/ludo-technologies/linecheck/app"
	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/config"
	"github.com/ludo-technologies/linecheck/service"
	"github.com/spf13/cobra"
)

// BulkUpdateCommand plans field patches across every matching step
type BulkUpdateCommand struct {
	where           string
	sets            []string
	apply           bool
	allowHardErrors bool
	includePatterns []string
	excludePatterns []string
	output          outputFlags
}

// NewBulkUpdateCommand creates a new bulk-update command
func NewBulkUpdateCommand() *BulkUpdateCommand {
	return &BulkUpdateCommand{}
}

// CreateCobraCommand creates the cobra command for bulk updates
func (c *BulkUpdateCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk-update --where EXPR --set FIELD=VALUE [paths...]",
		Short: "Plan (and optionally apply) a patch to every matching step",
		Long: `Plan a bulk update: every step matching --where receives the --set patches.
The plan lists each changed field with its old and new value. Builds whose
patched image no longer parses are rejected and left untouched.

Only whitelisted fields can be set, for example step.equipment.applianceId,
step.time.durationSeconds, step.notes or build.status.

Nothing is written unless --apply is given. With --apply, builds whose patched
image has hard rule errors are still skipped unless --allow-hard-errors is set.

Exit codes:
  0: plan built (and applied, with --apply)
  1: at least one build was rejected or held back by hard errors
  2: invalid where or set expression, or unreadable input

Examples:
  # Preview swapping waterbaths for combi ovens
  linecheck bulk-update --where 'step.equipment.applianceId = waterbath' \
    --set step.equipment.applianceId=combi_oven menu/

  # Apply it
  linecheck bulk-update --where 'step.equipment.applianceId = waterbath' \
    --set step.equipment.applianceId=combi_oven --apply menu/`,
		Args: cobra.ArbitraryArgs,
		RunE: c.runBulkUpdate,
	}

	cmd.Flags().StringVarP(&c.where, "where", "w", "", "Where expression selecting steps (required)")
	cmd.Flags().StringArrayVar(&c.sets, "set", nil, "FIELD=VALUE patch; repeatable (required)")
	cmd.Flags().BoolVar(&c.apply, "apply", false, "Write the patched builds back to their files")
	cmd.Flags().BoolVar(&c.allowHardErrors, "allow-hard-errors", false, "With --apply, write builds even when the patch introduces hard errors")
	cmd.Flags().StringSliceVar(&c.includePatterns, "include", nil, "File patterns to include")
	cmd.Flags().StringSliceVar(&c.excludePatterns, "exclude", nil, "File patterns to exclude")
	_ = cmd.MarkFlagRequired("where")
	_ = cmd.MarkFlagRequired("set")
	c.output.register(cmd, false)

	return cmd
}

func (c *BulkUpdateCommand) runBulkUpdate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}

	cfg, err := loadConfig(cmd, args[0], config.Overrides{
		IncludePatterns: c.includePatterns,
		ExcludePatterns: c.excludePatterns,
	})
	if err != nil {
		return err
	}
	format, outputPath, err := c.output.resolve(cmd, cfg, "bulk_update")
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	repo := service.NewBuildRepository()
	uc, err := app.NewBulkUpdateUseCaseBuilder().
		WithService(service.NewBulkUpdateService(repo).WithLogger(logger)).
		WithRepository(repo).
		WithFormatter(service.NewBulkUpdateFormatter()).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		Build()
	if err != nil {
		return err
	}

	resp, err := uc.Execute(cmd.Context(), domain.BulkUpdateRequest{
		Paths:           args,
		IncludePatterns: cfg.Input.IncludePatterns,
		ExcludePatterns: cfg.Input.ExcludePatterns,
		Where:           c.where,
		Sets:            c.sets,
		Apply:           c.apply,
		AllowHardErrors: c.allowHardErrors,
		OutputFormat:    format,
		OutputWriter:    cmd.OutOrStdout(),
		OutputPath:      outputPath,
	})
	if err != nil {
		return err
	}

	if n := heldBack(resp); n > 0 {
		return violations(fmt.Errorf("%d build(s) rejected or held back", n))
	}
	return nil
}

// heldBack counts rejected builds plus, when applying, planned builds that
// were not written because of hard errors.
func heldBack(resp *domain.BulkUpdateResponse) int {
	n := len(resp.Plan.Rejected)
	if resp.DryRun {
		return n
	}
	for i, f := range resp.Files {
		if !f.Applied && f.AfterHardCount > 0 && len(resp.Plan.Planned[i].Changes) > 0 {
			n++
		}
	}
	return n
}

// NewBulkUpdateCmd creates and returns the bulk-update cobra command
func NewBulkUpdateCmd() *cobra.Command {
	return NewBulkUpdateCommand().CreateCobraCommand()
}
