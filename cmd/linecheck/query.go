package main

import (
	"github.com/ludo-technologies/linecheck/app"
	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/config"
	"github.com/ludo-technologies/linecheck/service"
	"github.com/spf13/cobra"
)

// QueryCommand finds steps matching a where expression
type QueryCommand struct {
	where           string
	labelWidth      int
	includePatterns []string
	excludePatterns []string
	output          outputFlags
}

// NewQueryCommand creates a new query command
func NewQueryCommand() *QueryCommand {
	return &QueryCommand{}
}

// CreateCobraCommand creates the cobra command for step queries
func (c *QueryCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query --where EXPR [paths...]",
		Short: "Find steps matching a where expression",
		Long: `Evaluate a where expression against every step of every build and list
the matches ordered by item, version, build and step order.

A where expression is one or more clauses joined by an uppercase AND:

  field = value        field != value
  field in [a, b]      field not in [a, b]
  field exists         field not exists

Fields are dotted paths such as step.action.family, step.equipment.applianceId,
step.time.durationSeconds or build.status.

Examples:
  # Every HEAT step that uses a waterbath
  linecheck query --where 'step.action.family = HEAT AND step.equipment.applianceId = waterbath' menu/

  # Steps without a station
  linecheck query --where 'step.stationId not exists' --csv menu/`,
		Args: cobra.ArbitraryArgs,
		RunE: c.runQuery,
	}

	cmd.Flags().StringVarP(&c.where, "where", "w", "", "Where expression (required)")
	cmd.Flags().IntVar(&c.labelWidth, "label-width", 0, "Maximum step label width in runes")
	cmd.Flags().StringSliceVar(&c.includePatterns, "include", nil, "File patterns to include")
	cmd.Flags().StringSliceVar(&c.excludePatterns, "exclude", nil, "File patterns to exclude")
	_ = cmd.MarkFlagRequired("where")
	c.output.register(cmd, false)

	return cmd
}

func (c *QueryCommand) runQuery(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}

	cfg, err := loadConfig(cmd, args[0], config.Overrides{
		LabelWidth:      c.labelWidth,
		IncludePatterns: c.includePatterns,
		ExcludePatterns: c.excludePatterns,
	})
	if err != nil {
		return err
	}
	format, outputPath, err := c.output.resolve(cmd, cfg, "query")
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	repo := service.NewBuildRepository()
	uc, err := app.NewQueryUseCaseBuilder().
		WithService(service.NewQueryService(repo).WithLogger(logger)).
		WithRepository(repo).
		WithFormatter(service.NewQueryFormatter()).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		Build()
	if err != nil {
		return err
	}

	_, err = uc.Execute(cmd.Context(), domain.QueryRequest{
		Paths:           args,
		IncludePatterns: cfg.Input.IncludePatterns,
		ExcludePatterns: cfg.Input.ExcludePatterns,
		Where:           c.where,
		LabelWidth:      cfg.Query.LabelWidth,
		OutputFormat:    format,
		OutputWriter:    cmd.OutOrStdout(),
		OutputPath:      outputPath,
	})
	return err
}

// NewQueryCmd creates and returns the query cobra command
func NewQueryCmd() *cobra.Command {
	return NewQueryCommand().CreateCobraCommand()
}
