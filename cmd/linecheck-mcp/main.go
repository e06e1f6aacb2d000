package main

import (
	"fmt"
	"os"

	"github.com/ludo-technologies/linecheck/internal/config"
	"github.com/ludo-technologies/linecheck/internal/version"
	"github.com/ludo-technologies/linecheck/mcp"
	"github.com/ludo-technologies/linecheck/service"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const serverName = version.Name

func main() {
	configPath := pflag.StringP("config", "c", "", "Configuration file (default: discover .linecheck.toml)")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath, ".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(2)
	}

	// stdout carries JSON-RPC, so the logger must write to stderr
	logger, err := service.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	server := mcpserver.NewMCPServer(
		serverName,
		version.Short(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)

	mcp.RegisterTools(server, mcp.NewHandlerSet(mcp.NewDependencies(cfg, *configPath, logger)))

	logger.Info("starting MCP server",
		zap.String("name", serverName),
		zap.String("version", version.Short()),
		zap.Strings("tools", []string{"validate_build", "query_steps", "plan_bulk_update", "build_graph", "list_rules"}),
	)

	if err := mcpserver.ServeStdio(server); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}
