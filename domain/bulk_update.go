package domain

import (
	"context"
	"io"
)

// SetOp is one whitelisted field patch
type SetOp struct {
	Field string `json:"field" yaml:"field"`
	Value Value  `json:"value" yaml:"value"`
}

// BulkUpdateChange records one field mutation. From is nil when the field was absent.
type BulkUpdateChange struct {
	BuildID string      `json:"buildId" yaml:"buildId"`
	StepID  string      `json:"stepId,omitempty" yaml:"stepId,omitempty"`
	Field   string      `json:"field" yaml:"field"`
	From    interface{} `json:"from" yaml:"from"`
	To      interface{} `json:"to" yaml:"to"`
}

// PlannedBuildUpdate is the dry-run result for one build
type PlannedBuildUpdate struct {
	BuildID      string             `json:"buildId" yaml:"buildId"`
	ItemID       string             `json:"itemId" yaml:"itemId"`
	Version      int                `json:"version" yaml:"version"`
	Status       BuildStatus        `json:"status" yaml:"status"`
	MatchedSteps []string           `json:"matchedSteps" yaml:"matchedSteps"`
	Changes      []BulkUpdateChange `json:"changes" yaml:"changes"`
	After        *Build             `json:"after" yaml:"after"`
}

// BulkUpdateFailure is a build whose mutated image failed schema re-validation
type BulkUpdateFailure struct {
	BuildID string        `json:"buildId" yaml:"buildId"`
	ItemID  string        `json:"itemId" yaml:"itemId"`
	Version int           `json:"version" yaml:"version"`
	Issues  []SchemaIssue `json:"issues" yaml:"issues"`
}

// BulkUpdatePlan is the full dry-run plan
type BulkUpdatePlan struct {
	Clauses  []Clause             `json:"clauses" yaml:"clauses"`
	Sets     []SetOp              `json:"sets" yaml:"sets"`
	Planned  []PlannedBuildUpdate `json:"planned" yaml:"planned"`
	Rejected []BulkUpdateFailure  `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

// ChangeCount returns the number of recorded changes across planned builds
func (p *BulkUpdatePlan) ChangeCount() int {
	n := 0
	for _, pb := range p.Planned {
		n += len(pb.Changes)
	}
	return n
}

// BulkUpdateRequest represents input for a bulk update run
type BulkUpdateRequest struct {
	Paths           []string
	IncludePatterns []string
	ExcludePatterns []string
	Where           string
	Sets            []string

	// Apply writes each planned after image back to its source file
	Apply bool
	// AllowHardErrors permits applying after images that fail the rule catalog
	AllowHardErrors bool

	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string
}

// PlannedFile ties a planned build to its source file and after-image validation
type PlannedFile struct {
	Path           string `json:"path" yaml:"path"`
	BuildID        string `json:"buildId" yaml:"buildId"`
	AfterHardCount int    `json:"afterHardErrors" yaml:"afterHardErrors"`
	Applied        bool   `json:"applied" yaml:"applied"`
}

// BulkUpdateResponse is the result of a bulk update run
type BulkUpdateResponse struct {
	PlanID      string          `json:"planId" yaml:"planId"`
	Plan        *BulkUpdatePlan `json:"plan" yaml:"plan"`
	Files       []PlannedFile   `json:"files" yaml:"files"`
	Skipped     []string        `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	DryRun      bool            `json:"dryRun" yaml:"dryRun"`
	GeneratedAt string          `json:"generatedAt" yaml:"generatedAt"`
}

// BulkUpdateService plans and optionally applies bulk updates
type BulkUpdateService interface {
	Run(ctx context.Context, req BulkUpdateRequest) (*BulkUpdateResponse, error)
}

// BulkUpdateOutputFormatter renders bulk update responses
type BulkUpdateOutputFormatter interface {
	Write(response *BulkUpdateResponse, format OutputFormat, writer io.Writer) error
}
