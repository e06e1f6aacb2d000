package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
)

// QueryUseCase orchestrates the step query workflow
type QueryUseCase struct {
	service   domain.QueryService
	repo      domain.BuildRepository
	formatter domain.QueryOutputFormatter
	output    domain.ReportWriter
}

// NewQueryUseCase creates a new query use case
func NewQueryUseCase(
	service domain.QueryService,
	repo domain.BuildRepository,
	formatter domain.QueryOutputFormatter,
	output domain.ReportWriter,
) *QueryUseCase {
	return &QueryUseCase{service: service, repo: repo, formatter: formatter, output: output}
}

// Execute runs req.Where over the builds under req.Paths and writes the matches
func (uc *QueryUseCase) Execute(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	files, err := ResolveBuildFiles(uc.repo, req.Paths, req.IncludePatterns, req.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	req.Paths = files

	response, err := uc.service.Query(ctx, req)
	if err != nil {
		// query syntax errors are surfaced as-is so the offending input stays visible
		return nil, err
	}

	err = writeReport(uc.output, req.OutputWriter, req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, req.OutputFormat, w)
	})
	return response, err
}

func (uc *QueryUseCase) validateRequest(req domain.QueryRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("no input paths specified")
	}
	if strings.TrimSpace(req.Where) == "" {
		return fmt.Errorf("a where expression is required")
	}
	if req.LabelWidth < 0 {
		return fmt.Errorf("label width cannot be negative")
	}
	return validateOutput(req.OutputFormat, req.OutputWriter, req.OutputPath, tabularFormats...)
}

// QueryUseCaseBuilder provides a builder pattern for creating QueryUseCase
type QueryUseCaseBuilder struct {
	service   domain.QueryService
	repo      domain.BuildRepository
	formatter domain.QueryOutputFormatter
	output    domain.ReportWriter
}

// NewQueryUseCaseBuilder creates a new builder
func NewQueryUseCaseBuilder() *QueryUseCaseBuilder {
	return &QueryUseCaseBuilder{}
}

// WithService sets the query service
func (b *QueryUseCaseBuilder) WithService(service domain.QueryService) *QueryUseCaseBuilder {
	b.service = service
	return b
}

// WithRepository sets the build repository
func (b *QueryUseCaseBuilder) WithRepository(repo domain.BuildRepository) *QueryUseCaseBuilder {
	b.repo = repo
	return b
}

// WithFormatter sets the output formatter
func (b *QueryUseCaseBuilder) WithFormatter(formatter domain.QueryOutputFormatter) *QueryUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithOutputWriter sets the report writer
func (b *QueryUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *QueryUseCaseBuilder {
	b.output = output
	return b
}

// Build creates the QueryUseCase with the configured dependencies
func (b *QueryUseCaseBuilder) Build() (*QueryUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("query service is required")
	}
	if b.repo == nil {
		return nil, fmt.Errorf("build repository is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}
	return NewQueryUseCase(b.service, b.repo, b.formatter, b.output), nil
}
