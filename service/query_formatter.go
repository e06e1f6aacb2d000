package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
)

// QueryFormatterImpl implements domain.QueryOutputFormatter
type QueryFormatterImpl struct{}

// NewQueryFormatter creates a query formatter
func NewQueryFormatter() *QueryFormatterImpl { return &QueryFormatterImpl{} }

// Write renders the response in the requested format
func (f *QueryFormatterImpl) Write(resp *domain.QueryResponse, format domain.OutputFormat, w io.Writer) error {
	switch format {
	case domain.OutputFormatText:
		_, err := io.WriteString(w, f.formatText(resp))
		return err
	case domain.OutputFormatJSON:
		return WriteJSON(w, resp)
	case domain.OutputFormatYAML:
		return WriteYAML(w, resp)
	case domain.OutputFormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"itemId", "version", "buildId", "status", "stepId", "orderIndex", "label"}); err != nil {
			return err
		}
		for _, m := range resp.Matches {
			row := []string{m.ItemID, strconv.Itoa(m.Version), m.BuildID, string(m.Status), m.StepID, strconv.Itoa(m.OrderIndex), m.Label}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *QueryFormatterImpl) formatText(resp *domain.QueryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", resp.Where)
	fmt.Fprintf(&b, "Matches: %d\n\n", len(resp.Matches))
	for _, m := range resp.Matches {
		fmt.Fprintf(&b, "%s v%d [%s] #%d %s  %s\n", m.ItemID, m.Version, m.BuildID, m.OrderIndex, m.StepID, m.Label)
	}
	if len(resp.Skipped) > 0 {
		b.WriteString("\nSkipped (failed to load):\n")
		for _, p := range resp.Skipped {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}
	return b.String()
}
