package domain

import (
	"context"
	"io"
)

// Severity is the blocking level of a rule violation
type Severity string

const (
	SeverityHard   Severity = "hard"
	SeverityStrong Severity = "strong"
	SeveritySoft   Severity = "soft"
)

// Rank orders severities hard < strong < soft
func (s Severity) Rank() int {
	switch s {
	case SeverityHard:
		return 0
	case SeverityStrong:
		return 1
	case SeveritySoft:
		return 2
	default:
		return 3
	}
}

// Issue is a single rule violation
type Issue struct {
	Severity  Severity `json:"severity" yaml:"severity"`
	RuleID    string   `json:"ruleId" yaml:"ruleId"`
	Message   string   `json:"message" yaml:"message"`
	StepID    string   `json:"stepId,omitempty" yaml:"stepId,omitempty"`
	FieldPath string   `json:"fieldPath,omitempty" yaml:"fieldPath,omitempty"`
}

// ValidationResult is the outcome of running the rule catalog over one build.
// Valid is true iff HardErrors is empty.
type ValidationResult struct {
	Valid      bool    `json:"valid" yaml:"valid"`
	HardErrors []Issue `json:"hardErrors" yaml:"hardErrors"`
	Warnings   []Issue `json:"warnings" yaml:"warnings"`
}

// RuleIDs returns the rule ids of the given issues in order
func RuleIDs(issues []Issue) []string {
	ids := make([]string, 0, len(issues))
	for _, is := range issues {
		ids = append(ids, is.RuleID)
	}
	return ids
}

// BOMItem is one line of an external bill of materials
type BOMItem struct {
	BOMComponentID string `json:"bomComponentId" yaml:"bomComponentId"`
	Type           string `json:"type,omitempty" yaml:"type,omitempty"`
	Name           string `json:"name,omitempty" yaml:"name,omitempty"`
}

// BOM item types that must be covered by a step target
const (
	BOMTypeConsumable   = "consumable"
	BOMTypePackagedGood = "packaged_good"
)

// RuleInfo describes a registered rule for listings
type RuleInfo struct {
	ID          string   `json:"id" yaml:"id"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Scope       string   `json:"scope" yaml:"scope"`
	Description string   `json:"description" yaml:"description"`
}

// ValidationRequest represents input for validating one or more build files
type ValidationRequest struct {
	// Build files or directories
	Paths           []string
	IncludePatterns []string
	ExcludePatterns []string

	// Optional BOM file consulted by the coverage rule
	BOMPath string

	// Execution
	Parallel   bool
	MaxWorkers int

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string

	FailOnWarnings bool
}

// BuildValidation is the result for a single build file
type BuildValidation struct {
	Path    string            `json:"path" yaml:"path"`
	BuildID string            `json:"buildId,omitempty" yaml:"buildId,omitempty"`
	ItemID  string            `json:"itemId,omitempty" yaml:"itemId,omitempty"`
	Version int               `json:"version,omitempty" yaml:"version,omitempty"`
	Result  *ValidationResult `json:"result,omitempty" yaml:"result,omitempty"`
	// SchemaIssues is set when the file failed to parse; Result is nil then.
	SchemaIssues []SchemaIssue `json:"schemaIssues,omitempty" yaml:"schemaIssues,omitempty"`
	Error        string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the file could not be validated at all
func (v BuildValidation) Failed() bool {
	return v.Result == nil
}

// ValidationSummary aggregates a batch
type ValidationSummary struct {
	Builds        int `json:"builds" yaml:"builds"`
	ValidBuilds   int `json:"validBuilds" yaml:"validBuilds"`
	InvalidBuilds int `json:"invalidBuilds" yaml:"invalidBuilds"`
	SchemaFailed  int `json:"schemaFailed" yaml:"schemaFailed"`
	HardErrors    int `json:"hardErrors" yaml:"hardErrors"`
	Warnings      int `json:"warnings" yaml:"warnings"`
}

// ValidationResponse is the batch result
type ValidationResponse struct {
	Builds      []BuildValidation `json:"builds" yaml:"builds"`
	Summary     ValidationSummary `json:"summary" yaml:"summary"`
	GeneratedAt string            `json:"generatedAt" yaml:"generatedAt"`
	Version     string            `json:"version" yaml:"version"`
}

// HasFailures reports whether any build failed to parse or has hard errors
func (r *ValidationResponse) HasFailures() bool {
	return r.Summary.SchemaFailed > 0 || r.Summary.InvalidBuilds > 0
}

// ValidationService validates build files
type ValidationService interface {
	Validate(ctx context.Context, req ValidationRequest) (*ValidationResponse, error)
}

// ValidationOutputFormatter renders validation responses
type ValidationOutputFormatter interface {
	Write(response *ValidationResponse, format OutputFormat, writer io.Writer) error
}
