package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/analyzer"
)

// GraphFormatterImpl renders step graphs
type GraphFormatterImpl struct{}

// NewGraphFormatter creates a graph formatter
func NewGraphFormatter() *GraphFormatterImpl { return &GraphFormatterImpl{} }

// Write renders the response in the requested format
func (f *GraphFormatterImpl) Write(resp *domain.GraphResponse, format domain.OutputFormat, w io.Writer) error {
	switch format {
	case domain.OutputFormatDOT:
		_, err := io.WriteString(w, resp.DOT)
		return err
	case domain.OutputFormatText:
		_, err := io.WriteString(w, f.formatText(resp))
		return err
	case domain.OutputFormatJSON:
		return WriteJSON(w, resp)
	case domain.OutputFormatYAML:
		return WriteYAML(w, resp)
	case domain.OutputFormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"from", "to", "kind", "artifact"}); err != nil {
			return err
		}
		for _, e := range resp.Edges {
			if err := cw.Write([]string{e.From, e.To, e.Kind, e.Artifact}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *GraphFormatterImpl) formatText(resp *domain.GraphResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Step Graph: %s\n=====================\n\n", resp.BuildID)
	fmt.Fprintf(&b, "Steps:  %d\nEdges:  %d\nCycles: %d\n\n", len(resp.Steps), len(resp.Edges), len(resp.Cycles))

	if len(resp.TopologicalOrder) > 0 {
		fmt.Fprintf(&b, "Order: %s\n\n", strings.Join(resp.TopologicalOrder, ", "))
	}
	if len(resp.Cycles) > 0 {
		b.WriteString("Cycles:\n")
		for i, cyc := range resp.Cycles {
			fmt.Fprintf(&b, "  %d) %s\n", i+1, analyzer.FormatCycle(cyc))
		}
		b.WriteString("\n")
	}
	if len(resp.MissingReferences) > 0 {
		b.WriteString("Missing dependencies:\n")
		for _, m := range resp.MissingReferences {
			fmt.Fprintf(&b, "  - %s depends on unknown step %s\n", m.StepID, m.MissingID)
		}
		b.WriteString("\n")
	}
	if len(resp.Edges) > 0 {
		b.WriteString("Edges:\n")
		for _, e := range resp.Edges {
			if e.Artifact != "" {
				fmt.Fprintf(&b, "  %s -> %s (%s: %s)\n", e.From, e.To, e.Kind, e.Artifact)
			} else {
				fmt.Fprintf(&b, "  %s -> %s (%s)\n", e.From, e.To, e.Kind)
			}
		}
	}
	return b.String()
}
