package main

import (
	"fmt"
	"path/filepath"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/config"
	"github.com/spf13/cobra"
)

// InitCommand writes a commented default configuration file
type InitCommand struct {
	force bool
}

// NewInitCommand creates a new init command
func NewInitCommand() *InitCommand {
	return &InitCommand{}
}

// CreateCobraCommand creates the cobra command for configuration initialization
func (i *InitCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a .linecheck.toml configuration file",
		Long: `Create a configuration file with every setting at its default value.

linecheck looks for .linecheck.toml in the target directory and each of its
parents, so placing the file at the root of a menu repository applies it to
every build below.

Examples:
  # Create .linecheck.toml in the current directory
  linecheck init

  # Overwrite an existing file
  linecheck init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: i.runInit,
	}

	cmd.Flags().BoolVarP(&i.force, "force", "f", false, "Overwrite existing configuration file")
	return cmd
}

func (i *InitCommand) runInit(cmd *cobra.Command, args []string) error {
	path := config.ConfigFileName
	if len(args) == 1 {
		path = args[0]
	}
	configPath, err := filepath.Abs(path)
	if err != nil {
		return domain.NewInvalidInputError("failed to resolve config path", err)
	}

	if err := config.WriteDefaultConfig(configPath, i.force); err != nil {
		return domain.NewConfigError("failed to write configuration", err)
	}

	relPath, err := filepath.Rel(".", configPath)
	if err != nil {
		relPath = configPath
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", relPath)
	return nil
}

// NewInitCmd creates and returns the init cobra command
func NewInitCmd() *cobra.Command {
	return NewInitCommand().CreateCobraCommand()
}
