package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
)

// BulkUpdateUseCase orchestrates the bulk update workflow
type BulkUpdateUseCase struct {
	service   domain.BulkUpdateService
	repo      domain.BuildRepository
	formatter domain.BulkUpdateOutputFormatter
	output    domain.ReportWriter
}

// NewBulkUpdateUseCase creates a new bulk update use case
func NewBulkUpdateUseCase(
	service domain.BulkUpdateService,
	repo domain.BuildRepository,
	formatter domain.BulkUpdateOutputFormatter,
	output domain.ReportWriter,
) *BulkUpdateUseCase {
	return &BulkUpdateUseCase{service: service, repo: repo, formatter: formatter, output: output}
}

// Execute plans the update and, when req.Apply is set, writes the after images
func (uc *BulkUpdateUseCase) Execute(ctx context.Context, req domain.BulkUpdateRequest) (*domain.BulkUpdateResponse, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	files, err := ResolveBuildFiles(uc.repo, req.Paths, req.IncludePatterns, req.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	req.Paths = files

	response, err := uc.service.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	err = writeReport(uc.output, req.OutputWriter, req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, req.OutputFormat, w)
	})
	return response, err
}

func (uc *BulkUpdateUseCase) validateRequest(req domain.BulkUpdateRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("no input paths specified")
	}
	if strings.TrimSpace(req.Where) == "" {
		return fmt.Errorf("a where expression is required")
	}
	if len(req.Sets) == 0 {
		return fmt.Errorf("at least one --set expression is required")
	}
	if req.AllowHardErrors && !req.Apply {
		return fmt.Errorf("allow-hard-errors only applies together with apply")
	}
	return validateOutput(req.OutputFormat, req.OutputWriter, req.OutputPath, tabularFormats...)
}

// BulkUpdateUseCaseBuilder provides a builder pattern for creating BulkUpdateUseCase
type BulkUpdateUseCaseBuilder struct {
	service   domain.BulkUpdateService
	repo      domain.BuildRepository
	formatter domain.BulkUpdateOutputFormatter
	output    domain.ReportWriter
}

// NewBulkUpdateUseCaseBuilder creates a new builder
func NewBulkUpdateUseCaseBuilder() *BulkUpdateUseCaseBuilder {
	return &BulkUpdateUseCaseBuilder{}
}

// WithService sets the bulk update service
func (b *BulkUpdateUseCaseBuilder) WithService(service domain.BulkUpdateService) *BulkUpdateUseCaseBuilder {
	b.service = service
	return b
}

// WithRepository sets the build repository
func (b *BulkUpdateUseCaseBuilder) WithRepository(repo domain.BuildRepository) *BulkUpdateUseCaseBuilder {
	b.repo = repo
	return b
}

// WithFormatter sets the output formatter
func (b *BulkUpdateUseCaseBuilder) WithFormatter(formatter domain.BulkUpdateOutputFormatter) *BulkUpdateUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithOutputWriter sets the report writer
func (b *BulkUpdateUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *BulkUpdateUseCaseBuilder {
	b.output = output
	return b
}

// Build creates the BulkUpdateUseCase with the configured dependencies
func (b *BulkUpdateUseCaseBuilder) Build() (*BulkUpdateUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("bulk update service is required")
	}
	if b.repo == nil {
		return nil, fmt.Errorf("build repository is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}
	return NewBulkUpdateUseCase(b.service, b.repo, b.formatter, b.output), nil
}
