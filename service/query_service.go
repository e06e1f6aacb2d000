package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/query"
	"go.uber.org/zap"
)

// QueryServiceImpl implements the QueryService interface
type QueryServiceImpl struct {
	repo    domain.BuildRepository
	logger  *zap.Logger
	metrics *Metrics
}

// NewQueryService creates a new query service
func NewQueryService(repo domain.BuildRepository) *QueryServiceImpl {
	return &QueryServiceImpl{repo: repo, logger: zap.NewNop()}
}

// WithLogger sets the logger
func (s *QueryServiceImpl) WithLogger(logger *zap.Logger) *QueryServiceImpl {
	s.logger = loggerOrNop(logger)
	return s
}

// WithMetrics sets the metrics sink
func (s *QueryServiceImpl) WithMetrics(m *Metrics) *QueryServiceImpl {
	s.metrics = m
	return s
}

// Query parses req.Where and evaluates it over every build in req.Paths.
// Files that fail to load are listed in Skipped.
func (s *QueryServiceImpl) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	clauses, err := query.ParseWhere(req.Where)
	if err != nil {
		s.metrics.observeQuery("rejected", 0)
		return nil, err
	}

	builds, skipped, err := loadBuilds(ctx, s.repo, s.logger, req.Paths)
	if err != nil {
		return nil, err
	}

	plain := make([]*domain.Build, len(builds))
	for i, lb := range builds {
		plain[i] = lb.Build
	}
	resp := s.run(req.Where, clauses, plain, req.LabelWidth)
	resp.Skipped = skipped
	return resp, nil
}

// QueryBuilds evaluates where over builds that are already in memory
func (s *QueryServiceImpl) QueryBuilds(where string, builds []*domain.Build, labelWidth int) (*domain.QueryResponse, error) {
	clauses, err := query.ParseWhere(where)
	if err != nil {
		s.metrics.observeQuery("rejected", 0)
		return nil, err
	}
	return s.run(where, clauses, builds, labelWidth), nil
}

func (s *QueryServiceImpl) run(where string, clauses []domain.Clause, builds []*domain.Build, labelWidth int) *domain.QueryResponse {
	matches := query.RunQuery(builds, clauses, query.Options{LabelWidth: labelWidth})

	s.metrics.observeQuery("ok", len(matches))
	s.logger.Info("query finished",
		zap.String("where", where),
		zap.Int("builds", len(builds)),
		zap.Int("matches", len(matches)),
	)

	return &domain.QueryResponse{
		Where:       where,
		Clauses:     clauses,
		Matches:     matches,
		GeneratedAt: time.Now().Format(time.RFC3339),
	}
}

// loadBuilds loads every path, collecting the ones that fail to parse
func loadBuilds(ctx context.Context, repo domain.BuildRepository, logger *zap.Logger, paths []string) ([]domain.LoadedBuild, []string, error) {
	var builds []domain.LoadedBuild
	var skipped []string
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("loading builds cancelled: %w", ctx.Err())
		default:
		}

		b, err := repo.LoadBuild(path)
		if err != nil {
			logger.Warn("skipping build", zap.String("path", path), zap.Error(err))
			skipped = append(skipped, path)
			continue
		}
		builds = append(builds, domain.LoadedBuild{Path: path, Build: b})
	}
	return builds, skipped, nil
}
