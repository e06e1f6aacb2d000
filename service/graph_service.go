package service

import (
	"context"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/analyzer"
)

// GraphServiceImpl implements the GraphService interface
type GraphServiceImpl struct {
	repo domain.BuildRepository
}

// NewGraphService creates a new graph service
func NewGraphService(repo domain.BuildRepository) *GraphServiceImpl {
	return &GraphServiceImpl{repo: repo}
}

// Graph loads one build and describes its step graph
func (s *GraphServiceImpl) Graph(ctx context.Context, req domain.GraphRequest) (*domain.GraphResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := s.repo.LoadBuild(req.Path)
	if err != nil {
		return nil, err
	}
	return DescribeGraph(b), nil
}

// DescribeGraph builds the graph response for an already loaded build
func DescribeGraph(b *domain.Build) *domain.GraphResponse {
	g := analyzer.NewStepGraph(b.Steps)

	resp := &domain.GraphResponse{
		BuildID:           b.ID,
		Steps:             g.Nodes(),
		Edges:             g.Edges(),
		Cycles:            g.Cycles(),
		MissingReferences: g.MissingReferences(),
		DOT:               g.ToDOT(b.ID),
	}
	// a cyclic graph has no complete order
	if order, err := g.TopologicalOrder(); err == nil {
		resp.TopologicalOrder = order
	}
	return resp
}
