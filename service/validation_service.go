package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/rules"
	"github.com/ludo-technologies/linecheck/internal/schema"
	"github.com/ludo-technologies/linecheck/internal/version"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ValidationServiceImpl implements the ValidationService interface
type ValidationServiceImpl struct {
	repo     domain.BuildRepository
	boms     domain.BOMLoader
	logger   *zap.Logger
	metrics  *Metrics
	progress domain.ProgressManager
}

// NewValidationService creates a new validation service
func NewValidationService(repo domain.BuildRepository, boms domain.BOMLoader) *ValidationServiceImpl {
	return &ValidationServiceImpl{
		repo:     repo,
		boms:     boms,
		logger:   zap.NewNop(),
		progress: noopProgress{},
	}
}

// WithLogger sets the logger
func (s *ValidationServiceImpl) WithLogger(logger *zap.Logger) *ValidationServiceImpl {
	s.logger = loggerOrNop(logger)
	return s
}

// WithMetrics sets the metrics sink
func (s *ValidationServiceImpl) WithMetrics(m *Metrics) *ValidationServiceImpl {
	s.metrics = m
	return s
}

// WithProgress sets the progress manager used for batch runs
func (s *ValidationServiceImpl) WithProgress(pm domain.ProgressManager) *ValidationServiceImpl {
	if pm == nil {
		pm = noopProgress{}
	}
	s.progress = pm
	return s
}

// Validate validates every build file in req.Paths. Files are processed
// concurrently; the response lists them in input order.
func (s *ValidationServiceImpl) Validate(ctx context.Context, req domain.ValidationRequest) (*domain.ValidationResponse, error) {
	var bom []domain.BOMItem
	if req.BOMPath != "" {
		items, err := s.boms.LoadBOM(req.BOMPath)
		if err != nil {
			return nil, err
		}
		bom = items
		s.logger.Debug("loaded BOM", zap.String("path", req.BOMPath), zap.Int("items", len(bom)))
	}

	workers := req.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	s.progress.Initialize(len(req.Paths))
	s.progress.Start()
	defer s.progress.Close()

	results := make([]domain.BuildValidation, len(req.Paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range req.Paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.validateFile(path, bom, req.Parallel)
			s.progress.Increment()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.progress.Complete(false)
		return nil, fmt.Errorf("validation cancelled: %w", err)
	}
	s.progress.Complete(true)

	summary := summarize(results)
	s.logger.Info("validation finished",
		zap.Int("builds", summary.Builds),
		zap.Int("invalid", summary.InvalidBuilds),
		zap.Int("schema_failed", summary.SchemaFailed),
		zap.Int("hard_errors", summary.HardErrors),
		zap.Int("warnings", summary.Warnings),
	)

	return &domain.ValidationResponse{
		Builds:      results,
		Summary:     summary,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
	}, nil
}

// ValidateDocument parses and validates a single in-memory document
func (s *ValidationServiceImpl) ValidateDocument(data []byte, bom []domain.BOMItem, parallel bool) domain.BuildValidation {
	start := time.Now()
	b, err := schema.ParseBuild(data)
	if err != nil {
		return s.failed("", err)
	}
	return s.finish("", b, bom, parallel, start)
}

func (s *ValidationServiceImpl) validateFile(path string, bom []domain.BOMItem, parallel bool) domain.BuildValidation {
	start := time.Now()
	b, err := s.repo.LoadBuild(path)
	if err != nil {
		s.logger.Warn("build failed to load", zap.String("path", path), zap.Error(err))
		return s.failed(path, err)
	}
	return s.finish(path, b, bom, parallel, start)
}

func (s *ValidationServiceImpl) failed(path string, err error) domain.BuildValidation {
	s.metrics.observeValidation(outcomeSchemaFailed, 0)
	v := domain.BuildValidation{Path: path}
	if issues, ok := schema.IsSchemaError(err); ok {
		v.SchemaIssues = issues
		v.Error = fmt.Sprintf("%d schema issue(s)", len(issues))
	} else {
		v.Error = err.Error()
	}
	return v
}

func (s *ValidationServiceImpl) finish(path string, b *domain.Build, bom []domain.BOMItem, parallel bool, start time.Time) domain.BuildValidation {
	result := rules.ValidateBuild(b, rules.Options{BOM: bom, Parallel: parallel})

	outcome := outcomeValid
	if !result.Valid {
		outcome = outcomeInvalid
	}
	s.metrics.observeValidation(outcome, time.Since(start))
	for _, is := range result.HardErrors {
		s.metrics.observeViolation(is.RuleID, string(is.Severity))
	}
	for _, is := range result.Warnings {
		s.metrics.observeViolation(is.RuleID, string(is.Severity))
	}

	s.logger.Debug("build validated",
		zap.String("path", path),
		zap.String("build_id", b.ID),
		zap.Bool("valid", result.Valid),
		zap.Int("hard_errors", len(result.HardErrors)),
		zap.Int("warnings", len(result.Warnings)),
	)

	return domain.BuildValidation{
		Path:    path,
		BuildID: b.ID,
		ItemID:  b.ItemID,
		Version: b.Version,
		Result:  &result,
	}
}

func summarize(results []domain.BuildValidation) domain.ValidationSummary {
	summary := domain.ValidationSummary{Builds: len(results)}
	for _, r := range results {
		if r.Failed() {
			summary.SchemaFailed++
			continue
		}
		if r.Result.Valid {
			summary.ValidBuilds++
		} else {
			summary.InvalidBuilds++
		}
		summary.HardErrors += len(r.Result.HardErrors)
		summary.Warnings += len(r.Result.Warnings)
	}
	return summary
}
