package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ludo-technologies/linecheck/domain"
)

// GraphUseCase renders the step graph of a single build
type GraphUseCase struct {
	service   domain.GraphService
	formatter domain.GraphOutputFormatter
	output    domain.ReportWriter
}

// NewGraphUseCase creates a new graph use case
func NewGraphUseCase(service domain.GraphService, formatter domain.GraphOutputFormatter, output domain.ReportWriter) *GraphUseCase {
	return &GraphUseCase{service: service, formatter: formatter, output: output}
}

// Execute loads req.Path and writes its graph
func (uc *GraphUseCase) Execute(ctx context.Context, req domain.GraphRequest) (*domain.GraphResponse, error) {
	if req.Path == "" {
		return nil, domain.NewInvalidInputError("invalid request", fmt.Errorf("a build file is required"))
	}
	info, err := os.Stat(req.Path)
	if err != nil {
		return nil, domain.NewFileNotFoundError(req.Path, err)
	}
	if info.IsDir() {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("%s is a directory; graph takes a single build file", req.Path), nil)
	}
	if err := validateOutput(req.OutputFormat, req.OutputWriter, req.OutputPath,
		append(tabularFormats, domain.OutputFormatDOT)...); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	response, err := uc.service.Graph(ctx, req)
	if err != nil {
		return nil, err
	}

	err = writeReport(uc.output, req.OutputWriter, req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, req.OutputFormat, w)
	})
	return response, err
}
