package app

import (
	"fmt"
	"io"

	"github.com/ludo-technologies/linecheck/domain"
)

// ResolveBuildFiles expands the input paths into build documents using the
// repository's discovery rules. An empty result is an input error.
func ResolveBuildFiles(
	repo domain.BuildRepository,
	paths []string,
	includePatterns []string,
	excludePatterns []string,
) ([]string, error) {
	if len(paths) == 0 {
		return nil, domain.NewInvalidInputError("no input paths specified", nil)
	}

	files, err := repo.CollectBuildFiles(paths, includePatterns, excludePatterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("no build files found in %v", paths), nil)
	}
	return files, nil
}

// writeReport routes a formatter call through the report writer. Without a
// report writer the output goes straight to writer.
func writeReport(
	output domain.ReportWriter,
	writer io.Writer,
	outputPath string,
	format domain.OutputFormat,
	writeFunc func(io.Writer) error,
) error {
	if output == nil {
		if err := writeFunc(writer); err != nil {
			return domain.NewOutputError("failed to write output", err)
		}
		return nil
	}
	return output.Write(writer, outputPath, format, writeFunc)
}

func validateOutput(format domain.OutputFormat, writer io.Writer, outputPath string, allowed ...domain.OutputFormat) error {
	if writer == nil && outputPath == "" {
		return fmt.Errorf("output writer is required")
	}
	for _, f := range allowed {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format: %s", format)
}

var tabularFormats = []domain.OutputFormat{
	domain.OutputFormatText,
	domain.OutputFormatJSON,
	domain.OutputFormatYAML,
	domain.OutputFormatCSV,
}
