package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/bulkupdate"
	"github.com/ludo-technologies/linecheck/internal/query"
	"github.com/ludo-technologies/linecheck/internal/rules"
	"go.uber.org/zap"
)

// BulkUpdateServiceImpl implements the BulkUpdateService interface
type BulkUpdateServiceImpl struct {
	repo    domain.BuildRepository
	logger  *zap.Logger
	metrics *Metrics
	newID   func() string
}

// NewBulkUpdateService creates a new bulk update service
func NewBulkUpdateService(repo domain.BuildRepository) *BulkUpdateServiceImpl {
	return &BulkUpdateServiceImpl{
		repo:   repo,
		logger: zap.NewNop(),
		newID:  func() string { return uuid.New().String() },
	}
}

// WithLogger sets the logger
func (s *BulkUpdateServiceImpl) WithLogger(logger *zap.Logger) *BulkUpdateServiceImpl {
	s.logger = loggerOrNop(logger)
	return s
}

// WithMetrics sets the metrics sink
func (s *BulkUpdateServiceImpl) WithMetrics(m *Metrics) *BulkUpdateServiceImpl {
	s.metrics = m
	return s
}

// Run plans the update over req.Paths and, when req.Apply is set, writes the
// after images back. A planned build whose after image has hard errors is
// only written when req.AllowHardErrors is set. Builds without changes are
// never rewritten.
func (s *BulkUpdateServiceImpl) Run(ctx context.Context, req domain.BulkUpdateRequest) (*domain.BulkUpdateResponse, error) {
	clauses, err := query.ParseWhere(req.Where)
	if err != nil {
		return nil, err
	}
	sets, err := bulkupdate.ParseSets(req.Sets)
	if err != nil {
		return nil, err
	}

	builds, skipped, err := loadBuilds(ctx, s.repo, s.logger, req.Paths)
	if err != nil {
		return nil, err
	}

	plan := &domain.BulkUpdatePlan{
		Clauses: clauses,
		Sets:    sets,
		Planned: []domain.PlannedBuildUpdate{},
	}
	files := []domain.PlannedFile{}

	for _, lb := range builds {
		part, err := bulkupdate.PlanClauses([]*domain.Build{lb.Build}, clauses, sets)
		if err != nil {
			return nil, err
		}
		plan.Rejected = append(plan.Rejected, part.Rejected...)

		for _, pb := range part.Planned {
			after := rules.ValidateBuild(pb.After, rules.Options{})
			pf := domain.PlannedFile{
				Path:           lb.Path,
				BuildID:        pb.BuildID,
				AfterHardCount: len(after.HardErrors),
			}

			if req.Apply && len(pb.Changes) > 0 {
				if pf.AfterHardCount > 0 && !req.AllowHardErrors {
					s.logger.Warn("not applying plan with hard errors",
						zap.String("path", lb.Path), zap.Int("hard_errors", pf.AfterHardCount))
				} else {
					if err := s.repo.SaveBuild(lb.Path, pb.After); err != nil {
						return nil, err
					}
					pf.Applied = true
					s.logger.Info("applied bulk update", zap.String("path", lb.Path), zap.Int("changes", len(pb.Changes)))
				}
			}

			plan.Planned = append(plan.Planned, pb)
			files = append(files, pf)
		}
	}

	mode := "dry_run"
	if req.Apply {
		mode = "apply"
	}
	s.metrics.observePlan(mode, plan.ChangeCount())

	return &domain.BulkUpdateResponse{
		PlanID:      s.newID(),
		Plan:        plan,
		Files:       files,
		Skipped:     skipped,
		DryRun:      !req.Apply,
		GeneratedAt: time.Now().Format(time.RFC3339),
	}, nil
}

// PlanBuilds builds a dry-run plan over builds that are already in memory.
// Nothing is persisted; Files carries the after-image hard error counts.
func (s *BulkUpdateServiceImpl) PlanBuilds(where string, setExprs []string, builds []*domain.Build) (*domain.BulkUpdateResponse, error) {
	clauses, err := query.ParseWhere(where)
	if err != nil {
		return nil, err
	}
	sets, err := bulkupdate.ParseSets(setExprs)
	if err != nil {
		return nil, err
	}

	plan, err := bulkupdate.PlanClauses(builds, clauses, sets)
	if err != nil {
		return nil, err
	}
	files := make([]domain.PlannedFile, 0, len(plan.Planned))
	for _, pb := range plan.Planned {
		after := rules.ValidateBuild(pb.After, rules.Options{})
		files = append(files, domain.PlannedFile{
			BuildID:        pb.BuildID,
			AfterHardCount: len(after.HardErrors),
		})
	}
	s.metrics.observePlan("dry_run", plan.ChangeCount())

	return &domain.BulkUpdateResponse{
		PlanID:      s.newID(),
		Plan:        plan,
		Files:       files,
		DryRun:      true,
		GeneratedAt: time.Now().Format(time.RFC3339),
	}, nil
}
