package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
)

// ValidationFormatterImpl implements domain.ValidationOutputFormatter
type ValidationFormatterImpl struct {
	color bool
}

// NewValidationFormatter creates a validation formatter; color enables ANSI colors in text output
func NewValidationFormatter(color bool) *ValidationFormatterImpl {
	return &ValidationFormatterImpl{color: color}
}

// Write renders the response in the requested format
func (f *ValidationFormatterImpl) Write(resp *domain.ValidationResponse, format domain.OutputFormat, w io.Writer) error {
	switch format {
	case domain.OutputFormatText:
		_, err := io.WriteString(w, f.formatText(resp))
		return err
	case domain.OutputFormatJSON:
		return WriteJSON(w, resp)
	case domain.OutputFormatYAML:
		return WriteYAML(w, resp)
	case domain.OutputFormatCSV:
		return f.writeCSV(resp, w)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *ValidationFormatterImpl) formatText(resp *domain.ValidationResponse) string {
	var b strings.Builder
	utils := NewFormatUtils(f.color)

	b.WriteString(utils.FormatMainHeader("Line Build Validation"))
	b.WriteString(utils.FormatSectionHeader("Summary"))
	b.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Builds", resp.Summary.Builds))
	b.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Valid", resp.Summary.ValidBuilds))
	b.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Invalid", resp.Summary.InvalidBuilds))
	if resp.Summary.SchemaFailed > 0 {
		b.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Schema failures", resp.Summary.SchemaFailed))
	}
	b.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Hard errors", resp.Summary.HardErrors))
	b.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Warnings", resp.Summary.Warnings))
	b.WriteString("\n")

	for _, bv := range resp.Builds {
		name := bv.Path
		if name == "" {
			name = "<input>"
		}

		switch {
		case bv.Failed():
			fmt.Fprintf(&b, "%s: %s\n", name, utils.Colorize(ColorRed, "UNREADABLE"))
			for _, is := range bv.SchemaIssues {
				path := is.Path
				if path == "" {
					path = "<root>"
				}
				fmt.Fprintf(&b, "%s%s [%s] %s\n", strings.Repeat(" ", SectionPadding), path, is.Code, is.Message)
			}
			if len(bv.SchemaIssues) == 0 && bv.Error != "" {
				fmt.Fprintf(&b, "%s%s\n", strings.Repeat(" ", SectionPadding), bv.Error)
			}
		default:
			status := utils.Colorize(ColorGreen, "VALID")
			if !bv.Result.Valid {
				status = utils.Colorize(ColorRed, "INVALID")
			}
			fmt.Fprintf(&b, "%s (%s v%d, id %s): %s\n", name, bv.ItemID, bv.Version, bv.BuildID, status)
			for _, is := range bv.Result.HardErrors {
				b.WriteString(strings.Repeat(" ", SectionPadding) + utils.FormatIssue(is) + "\n")
			}
			for _, is := range bv.Result.Warnings {
				b.WriteString(strings.Repeat(" ", SectionPadding) + utils.FormatIssue(is) + "\n")
			}
		}
	}
	return b.String()
}

func (f *ValidationFormatterImpl) writeCSV(resp *domain.ValidationResponse, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"path", "buildId", "itemId", "version", "severity", "ruleId", "stepId", "fieldPath", "message"}); err != nil {
		return err
	}
	for _, bv := range resp.Builds {
		if bv.Failed() {
			for _, is := range bv.SchemaIssues {
				if err := cw.Write([]string{bv.Path, "", "", "", "schema", is.Code, "", is.Path, is.Message}); err != nil {
					return err
				}
			}
			continue
		}
		version := strconv.Itoa(bv.Version)
		issues := append(append([]domain.Issue{}, bv.Result.HardErrors...), bv.Result.Warnings...)
		for _, is := range issues {
			row := []string{bv.Path, bv.BuildID, bv.ItemID, version, string(is.Severity), is.RuleID, is.StepID, is.FieldPath, is.Message}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRuleCatalog renders the registered rules
func WriteRuleCatalog(catalog []domain.RuleInfo, format domain.OutputFormat, w io.Writer) error {
	switch format {
	case domain.OutputFormatText:
		var b strings.Builder
		fmt.Fprintf(&b, "%-4s %-7s %-6s %s\n", "ID", "LEVEL", "SCOPE", "DESCRIPTION")
		for _, r := range catalog {
			fmt.Fprintf(&b, "%-4s %-7s %-6s %s\n", r.ID, r.Severity, r.Scope, r.Description)
		}
		_, err := io.WriteString(w, b.String())
		return err
	case domain.OutputFormatJSON:
		return WriteJSON(w, catalog)
	case domain.OutputFormatYAML:
		return WriteYAML(w, catalog)
	case domain.OutputFormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"id", "severity", "scope", "description"}); err != nil {
			return err
		}
		for _, r := range catalog {
			if err := cw.Write([]string{r.ID, string(r.Severity), r.Scope, r.Description}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}
