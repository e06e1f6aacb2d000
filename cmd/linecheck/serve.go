package main

import (
	"github.com/ludo-technologies/linecheck/internal/config"
	"github.com/ludo-technologies/linecheck/internal/httpapi"
	"github.com/ludo-technologies/linecheck/service"
	"github.com/spf13/cobra"
)

// ServeCommand runs the HTTP API
type ServeCommand struct {
	addr string
}

// NewServeCommand creates a new serve command
func NewServeCommand() *ServeCommand {
	return &ServeCommand{addr: config.DefaultServerAddr}
}

// CreateCobraCommand creates the cobra command for the HTTP API
func (s *ServeCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validator, query engine and planner over HTTP",
		Long: `Start an HTTP API. Build documents are posted inline; the server never
reads or writes build files.

Routes:
  GET  /healthz
  GET  /metrics              Prometheus metrics
  GET  /api/v1/rules         rule catalog
  POST /api/v1/validate      {"builds": [...], "bom": [...]}
  POST /api/v1/query         {"where": "...", "builds": [...]}
  POST /api/v1/bulk-update   {"where": "...", "sets": [...], "builds": [...]} (dry run)
  POST /api/v1/graph         {"build": {...}}

Examples:
  linecheck serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: s.runServe,
	}
	cmd.Flags().StringVar(&s.addr, "addr", config.DefaultServerAddr, "Listen address")
	return cmd
}

func (s *ServeCommand) runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, ".", config.Overrides{Addr: s.addr})
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	server := httpapi.NewServer(httpapi.Config{Addr: cfg.Server.Addr}, logger, service.NewMetrics())
	return server.ListenAndServe(cmd.Context())
}

// NewServeCmd creates and returns the serve cobra command
func NewServeCmd() *cobra.Command {
	return NewServeCommand().CreateCobraCommand()
}
