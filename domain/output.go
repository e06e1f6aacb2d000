package domain

import (
	"io"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatCSV  OutputFormat = "csv"
	OutputFormatDOT  OutputFormat = "dot"
)

// ParseOutputFormat maps a user-supplied name to a known format
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatCSV, OutputFormatDOT:
		return OutputFormat(s), nil
	case "":
		return OutputFormatText, nil
	default:
		return "", NewUnsupportedFormatError(s)
	}
}

// LoadedBuild is a build together with the file it was read from
type LoadedBuild struct {
	Path  string
	Build *Build
}

// BuildRepository locates, reads and writes build documents
type BuildRepository interface {
	// CollectBuildFiles finds build documents under the given paths
	CollectBuildFiles(paths []string, includePatterns, excludePatterns []string) ([]string, error)

	// ReadFile reads the content of a file
	ReadFile(path string) ([]byte, error)

	// LoadBuild reads and strictly parses a build document
	LoadBuild(path string) (*Build, error)

	// SaveBuild atomically replaces the document at path
	SaveBuild(path string, build *Build) error
}

// BOMLoader reads bill-of-materials lists
type BOMLoader interface {
	LoadBOM(path string) ([]BOMItem, error)
}

// ReportWriter abstracts writing reports to a destination (file or writer).
//
// Implementations live in the service layer.
type ReportWriter interface {
	// Write writes formatted content using the provided writeFunc.
	// - If outputPath is non-empty, implementations should create/truncate the file
	//   at that path and pass the file as the writer to writeFunc.
	// - If outputPath is empty, implementations should pass the provided writer to writeFunc.
	Write(writer io.Writer, outputPath string, format OutputFormat, writeFunc func(io.Writer) error) error
}

// ProgressManager manages progress tracking for batch runs
type ProgressManager interface {
	// Initialize sets up progress tracking with the maximum value
	Initialize(maxValue int)

	// Start starts the progress bar
	Start()

	// Complete marks the progress as completed
	Complete(success bool)

	// Increment advances the progress by one unit
	Increment()

	// SetWriter sets the output writer for progress bars
	SetWriter(writer io.Writer)

	// IsInteractive returns true if progress bars should be shown
	IsInteractive() bool

	// Close cleans up any resources
	Close()
}
