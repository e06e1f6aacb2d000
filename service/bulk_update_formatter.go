package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
)

// BulkUpdateFormatterImpl implements domain.BulkUpdateOutputFormatter
type BulkUpdateFormatterImpl struct{}

// NewBulkUpdateFormatter creates a bulk update formatter
func NewBulkUpdateFormatter() *BulkUpdateFormatterImpl { return &BulkUpdateFormatterImpl{} }

// Write renders the response in the requested format
func (f *BulkUpdateFormatterImpl) Write(resp *domain.BulkUpdateResponse, format domain.OutputFormat, w io.Writer) error {
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
		if err := cw.Write([]string{"path", "buildId", "stepId", "field", "from", "to"}); err != nil {
			return err
		}
		for i, pb := range resp.Plan.Planned {
			path := filePath(resp, i)
			for _, c := range pb.Changes {
				if err := cw.Write([]string{path, c.BuildID, c.StepID, c.Field, formatChangeValue(c.From), formatChangeValue(c.To)}); err != nil {
					return err
				}
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *BulkUpdateFormatterImpl) formatText(resp *domain.BulkUpdateResponse) string {
	var b strings.Builder
	utils := NewFormatUtils(false)

	title := "Bulk Update Plan"
	if resp.DryRun {
		title += " (dry run)"
	}
	b.WriteString(utils.FormatMainHeader(title))
	b.WriteString(utils.FormatLabelWithIndent(0, "Plan", resp.PlanID))

	sets := make([]string, len(resp.Plan.Sets))
	for i, s := range resp.Plan.Sets {
		sets[i] = s.Field + "=" + s.Value.String()
	}
	b.WriteString(utils.FormatLabelWithIndent(0, "Set", strings.Join(sets, ", ")))
	b.WriteString(utils.FormatLabelWithIndent(0, "Planned builds", len(resp.Plan.Planned)))
	b.WriteString(utils.FormatLabelWithIndent(0, "Changes", resp.Plan.ChangeCount()))
	if len(resp.Plan.Rejected) > 0 {
		b.WriteString(utils.FormatLabelWithIndent(0, "Rejected", len(resp.Plan.Rejected)))
	}
	b.WriteString("\n")

	for i, pb := range resp.Plan.Planned {
		fmt.Fprintf(&b, "%s (%s v%d, id %s): %d change(s), %d matched step(s)",
			filePath(resp, i), pb.ItemID, pb.Version, pb.BuildID, len(pb.Changes), len(pb.MatchedSteps))
		if i < len(resp.Files) {
			if n := resp.Files[i].AfterHardCount; n > 0 {
				fmt.Fprintf(&b, ", %d hard error(s) after update", n)
			}
			if resp.Files[i].Applied {
				b.WriteString(", applied")
			}
		}
		b.WriteString("\n")
		for _, c := range pb.Changes {
			target := c.Field
			if c.StepID != "" {
				target = c.StepID + " " + c.Field
			}
			fmt.Fprintf(&b, "%s%s: %s -> %s\n", strings.Repeat(" ", SectionPadding), target, formatChangeValue(c.From), formatChangeValue(c.To))
		}
	}

	if len(resp.Plan.Rejected) > 0 {
		b.WriteString("\n")
		b.WriteString(utils.FormatSectionHeader("Rejected"))
		for _, r := range resp.Plan.Rejected {
			fmt.Fprintf(&b, "%s (%s v%d):\n", r.BuildID, r.ItemID, r.Version)
			for _, is := range r.Issues {
				fmt.Fprintf(&b, "%s%s [%s] %s\n", strings.Repeat(" ", SectionPadding), is.Path, is.Code, is.Message)
			}
		}
	}
	if len(resp.Skipped) > 0 {
		b.WriteString("\nSkipped (failed to load):\n")
		for _, p := range resp.Skipped {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}
	return b.String()
}

func filePath(resp *domain.BulkUpdateResponse, i int) string {
	if i < len(resp.Files) && resp.Files[i].Path != "" {
		return resp.Files[i].Path
	}
	return resp.Plan.Planned[i].BuildID
}

func formatChangeValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "<unset>"
	case string:
		return fmt.Sprintf("%q", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
