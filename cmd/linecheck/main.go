package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ludo-technologies/linecheck/internal/version"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "linecheck",
		Short: "Validate, query and bulk-edit kitchen line builds",
		Long: `linecheck checks line build documents: the ordered steps a kitchen line
follows to assemble one menu item.

Features:
  • Strict schema parsing of build JSON files
  • A catalog of hard and soft validation rules, including dependency cycles
  • A small where-language for finding steps across many builds
  • Dry-run bulk updates with per-field change records`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file path (default: nearest .linecheck.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewQueryCmd())
	rootCmd.AddCommand(NewBulkUpdateCmd())
	rootCmd.AddCommand(NewGraphCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil && !isSilent(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
