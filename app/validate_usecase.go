package app

import (
	"context"
	"fmt"
	"io"

	"github.com/ludo-technologies/linecheck/domain"
)

// ValidateUseCase orchestrates the build validation workflow
type ValidateUseCase struct {
	service   domain.ValidationService
	repo      domain.BuildRepository
	formatter domain.ValidationOutputFormatter
	output    domain.ReportWriter
}

// NewValidateUseCase creates a new validate use case
func NewValidateUseCase(
	service domain.ValidationService,
	repo domain.BuildRepository,
	formatter domain.ValidationOutputFormatter,
	output domain.ReportWriter,
) *ValidateUseCase {
	return &ValidateUseCase{
		service:   service,
		repo:      repo,
		formatter: formatter,
		output:    output,
	}
}

// Execute validates every build under req.Paths and writes the report. The
// response is returned so callers can map it to an exit status.
func (uc *ValidateUseCase) Execute(ctx context.Context, req domain.ValidationRequest) (*domain.ValidationResponse, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	files, err := ResolveBuildFiles(uc.repo, req.Paths, req.IncludePatterns, req.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	req.Paths = files

	response, err := uc.service.Validate(ctx, req)
	if err != nil {
		return nil, domain.NewAnalysisError("validation failed", err)
	}

	err = writeReport(uc.output, req.OutputWriter, req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, req.OutputFormat, w)
	})
	return response, err
}

// Failed reports whether a response should fail the run under req's policy
func (uc *ValidateUseCase) Failed(resp *domain.ValidationResponse, req domain.ValidationRequest) bool {
	if resp == nil {
		return true
	}
	if resp.HasFailures() {
		return true
	}
	return req.FailOnWarnings && resp.Summary.Warnings > 0
}

func (uc *ValidateUseCase) validateRequest(req domain.ValidationRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("no input paths specified")
	}
	if req.MaxWorkers < 0 {
		return fmt.Errorf("max workers cannot be negative")
	}
	return validateOutput(req.OutputFormat, req.OutputWriter, req.OutputPath, tabularFormats...)
}

// ValidateUseCaseBuilder provides a builder pattern for creating ValidateUseCase
type ValidateUseCaseBuilder struct {
	service   domain.ValidationService
	repo      domain.BuildRepository
	formatter domain.ValidationOutputFormatter
	output    domain.ReportWriter
}

// NewValidateUseCaseBuilder creates a new builder
func NewValidateUseCaseBuilder() *ValidateUseCaseBuilder {
	return &ValidateUseCaseBuilder{}
}

// WithService sets the validation service
func (b *ValidateUseCaseBuilder) WithService(service domain.ValidationService) *ValidateUseCaseBuilder {
	b.service = service
	return b
}

// WithRepository sets the build repository
func (b *ValidateUseCaseBuilder) WithRepository(repo domain.BuildRepository) *ValidateUseCaseBuilder {
	b.repo = repo
	return b
}

// WithFormatter sets the output formatter
func (b *ValidateUseCaseBuilder) WithFormatter(formatter domain.ValidationOutputFormatter) *ValidateUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithOutputWriter sets the report writer
func (b *ValidateUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *ValidateUseCaseBuilder {
	b.output = output
	return b
}

// Build creates the ValidateUseCase with the configured dependencies
func (b *ValidateUseCaseBuilder) Build() (*ValidateUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("validation service is required")
	}
	if b.repo == nil {
		return nil, fmt.Errorf("build repository is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("output formatter is required")
	}
	return NewValidateUseCase(b.service, b.repo, b.formatter, b.output), nil
}
