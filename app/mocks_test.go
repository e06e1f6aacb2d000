package app

import (
	"context"
	"io"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/stretchr/testify/mock"
)

type mockBuildRepository struct {
	mock.Mock
}

func (m *mockBuildRepository) CollectBuildFiles(paths []string, includePatterns, excludePatterns []string) ([]string, error) {
	args := m.Called(paths, includePatterns, excludePatterns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockBuildRepository) ReadFile(path string) ([]byte, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockBuildRepository) LoadBuild(path string) (*domain.Build, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Build), args.Error(1)
}

func (m *mockBuildRepository) SaveBuild(path string, build *domain.Build) error {
	return m.Called(path, build).Error(0)
}

type mockValidationService struct {
	mock.Mock
}

func (m *mockValidationService) Validate(ctx context.Context, req domain.ValidationRequest) (*domain.ValidationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationResponse), args.Error(1)
}

type mockValidationFormatter struct {
	mock.Mock
}

func (m *mockValidationFormatter) Write(resp *domain.ValidationResponse, format domain.OutputFormat, w io.Writer) error {
	return m.Called(resp, format, w).Error(0)
}

type mockQueryService struct {
	mock.Mock
}

func (m *mockQueryService) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryResponse), args.Error(1)
}

type mockQueryFormatter struct {
	mock.Mock
}

func (m *mockQueryFormatter) Write(resp *domain.QueryResponse, format domain.OutputFormat, w io.Writer) error {
	return m.Called(resp, format, w).Error(0)
}

type mockBulkUpdateService struct {
	mock.Mock
}

func (m *mockBulkUpdateService) Run(ctx context.Context, req domain.BulkUpdateRequest) (*domain.BulkUpdateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BulkUpdateResponse), args.Error(1)
}

type mockBulkUpdateFormatter struct {
	mock.Mock
}

func (m *mockBulkUpdateFormatter) Write(resp *domain.BulkUpdateResponse, format domain.OutputFormat, w io.Writer) error {
	return m.Called(resp, format, w).Error(0)
}

type mockGraphService struct {
	mock.Mock
}

func (m *mockGraphService) Graph(ctx context.Context, req domain.GraphRequest) (*domain.GraphResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GraphResponse), args.Error(1)
}

type mockGraphFormatter struct {
	mock.Mock
}

func (m *mockGraphFormatter) Write(resp *domain.GraphResponse, format domain.OutputFormat, w io.Writer) error {
	return m.Called(resp, format, w).Error(0)
}
