package domain

import (
	"context"
	"io"
)

// GraphRequest represents input for rendering a build's step graph
type GraphRequest struct {
	Path         string
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string
}

// GraphEdge is a directed edge between steps
type GraphEdge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	// Kind is "depends_on" or "material"
	Kind     string `json:"kind" yaml:"kind"`
	Artifact string `json:"artifact,omitempty" yaml:"artifact,omitempty"`
}

// GraphResponse describes the step graph of one build
type GraphResponse struct {
	BuildID           string             `json:"buildId" yaml:"buildId"`
	Steps             []string           `json:"steps" yaml:"steps"`
	Edges             []GraphEdge        `json:"edges" yaml:"edges"`
	TopologicalOrder  []string           `json:"topologicalOrder,omitempty" yaml:"topologicalOrder,omitempty"`
	Cycles            [][]string         `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	MissingReferences []MissingReference `json:"missingReferences,omitempty" yaml:"missingReferences,omitempty"`
	DOT               string             `json:"-" yaml:"-"`
}

// MissingReference is a dependsOn entry that names no known step
type MissingReference struct {
	StepID    string `json:"stepId" yaml:"stepId"`
	MissingID string `json:"missingId" yaml:"missingId"`
}

// GraphService builds step graphs
type GraphService interface {
	Graph(ctx context.Context, req GraphRequest) (*GraphResponse, error)
}

// GraphOutputFormatter renders graph responses
type GraphOutputFormatter interface {
	Write(response *GraphResponse, format OutputFormat, writer io.Writer) error
}
