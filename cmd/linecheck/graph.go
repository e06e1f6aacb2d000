package main

import (
	"github.com/ludo-technologies/linecheck/app"
	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/config"
	"github.com/ludo-technologies/linecheck/service"
	"github.com/spf13/cobra"
)

// GraphCommand renders the step dependency graph of one build
type GraphCommand struct {
	output outputFlags
}

// NewGraphCommand creates a new graph command
func NewGraphCommand() *GraphCommand {
	return &GraphCommand{}
}

// CreateCobraCommand creates the cobra command for graph rendering
func (c *GraphCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph BUILD_FILE",
		Short: "Show the step dependency graph of a build",
		Long: `Show the steps of one build with their dependsOn and material edges,
a topological order when the graph is acyclic, every cycle, and dependsOn
entries that name unknown steps.

Examples:
  # Text summary
  linecheck graph menu/chicken-bowl.json

  # Render with Graphviz
  linecheck graph --dot menu/chicken-bowl.json | dot -Tsvg > bowl.svg`,
		Args: cobra.ExactArgs(1),
		RunE: c.runGraph,
	}
	c.output.register(cmd, true)
	return cmd
}

func (c *GraphCommand) runGraph(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0], config.Overrides{})
	if err != nil {
		return err
	}
	format, outputPath, err := c.output.resolve(cmd, cfg, "graph")
	if err != nil {
		return err
	}

	uc := app.NewGraphUseCase(
		service.NewGraphService(service.NewBuildRepository()),
		service.NewGraphFormatter(),
		service.NewFileOutputWriter(cmd.ErrOrStderr()),
	)
	_, err = uc.Execute(cmd.Context(), domain.GraphRequest{
		Path:         args[0],
		OutputFormat: format,
		OutputWriter: cmd.OutOrStdout(),
		OutputPath:   outputPath,
	})
	return err
}

// NewGraphCmd creates and returns the graph cobra command
func NewGraphCmd() *cobra.Command {
	return NewGraphCommand().CreateCobraCommand()
}
