package mcp

import (
	"github.com/ludo-technologies/linecheck/app"
	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/config"
	"github.com/ludo-technologies/linecheck/service"
	"go.uber.org/zap"
)

// Dependencies aggregates the shared services required by MCP handlers.
type Dependencies struct {
	repo       domain.BuildRepository
	config     *config.Config
	configPath string
	logger     *zap.Logger
}

// NewDependencies constructs the dependency set with sane defaults.
func NewDependencies(cfg *config.Config, configPath string, logger *zap.Logger) *Dependencies {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dependencies{
		repo:       service.NewBuildRepository(),
		config:     cfg,
		configPath: configPath,
		logger:     logger,
	}
}

// Config exposes the loaded configuration snapshot.
func (d *Dependencies) Config() *config.Config {
	return d.config
}

// ConfigPath returns the configured config file path (may be empty to trigger discovery).
func (d *Dependencies) ConfigPath() string {
	return d.configPath
}

// ConfigFor resolves the configuration that applies to target. An explicit
// config path or a discovered .linecheck.toml wins over the startup snapshot.
func (d *Dependencies) ConfigFor(target string) *config.Config {
	if d.configPath == "" && config.FindConfigFile(target) == "" {
		return d.config
	}
	cfg, err := config.LoadConfig(d.configPath, target)
	if err != nil {
		d.logger.Warn("falling back to startup configuration", zap.String("target", target), zap.Error(err))
		return d.config
	}
	return cfg
}

// BuildValidateUseCase assembles a ValidateUseCase that discards its report.
func (d *Dependencies) BuildValidateUseCase() (*app.ValidateUseCase, error) {
	return app.NewValidateUseCaseBuilder().
		WithService(service.NewValidationService(d.repo, service.NewBOMLoader()).WithLogger(d.logger)).
		WithRepository(d.repo).
		WithFormatter(service.NewValidationFormatter(false)).
		Build()
}

// BuildQueryUseCase assembles a QueryUseCase that discards its report.
func (d *Dependencies) BuildQueryUseCase() (*app.QueryUseCase, error) {
	return app.NewQueryUseCaseBuilder().
		WithService(service.NewQueryService(d.repo).WithLogger(d.logger)).
		WithRepository(d.repo).
		WithFormatter(service.NewQueryFormatter()).
		Build()
}

// BuildBulkUpdateUseCase assembles a BulkUpdateUseCase. MCP callers only
// ever get dry runs.
func (d *Dependencies) BuildBulkUpdateUseCase() (*app.BulkUpdateUseCase, error) {
	return app.NewBulkUpdateUseCaseBuilder().
		WithService(service.NewBulkUpdateService(d.repo).WithLogger(d.logger)).
		WithRepository(d.repo).
		WithFormatter(service.NewBulkUpdateFormatter()).
		Build()
}

// BuildGraphUseCase assembles a GraphUseCase.
func (d *Dependencies) BuildGraphUseCase() *app.GraphUseCase {
	return app.NewGraphUseCase(service.NewGraphService(d.repo), service.NewGraphFormatter(), nil)
}
