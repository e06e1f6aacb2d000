package mcp

import (
	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/config"
	"go.uber.org/zap"
)

func NewTestDependencies(repo domain.BuildRepository, cfg *config.Config, path string) *Dependencies {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Dependencies{
		repo:       repo,
		config:     cfg,
		configPath: path,
		logger:     zap.NewNop(),
	}
}
