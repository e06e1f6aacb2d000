package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
	"gopkg.in/yaml.v3"
)

// EncodeJSON returns an indented JSON string for the given value.
func EncodeJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", domain.NewOutputError("failed to marshal JSON", err)
	}
	return string(data), nil
}

// WriteJSON writes indented JSON for the given value to the writer.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode JSON", err)
	}
	return nil
}

// WriteYAML writes YAML for the given value to the writer.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode YAML", err)
	}
	return nil
}

// Standard formatting constants
const (
	HeaderWidth    = 40
	SectionPadding = 2
	ItemPadding    = 4
)

// ANSI color codes for consistent color usage
const (
	ColorReset  = "\x1b[0m"
	ColorRed    = "\x1b[31m"
	ColorYellow = "\x1b[33m"
	ColorGreen  = "\x1b[32m"
	ColorCyan   = "\x1b[36m"
)

// FormatUtils provides shared text formatting helpers
type FormatUtils struct {
	color bool
}

// NewFormatUtils creates a new format utilities instance. Colors are only
// emitted when color is set.
func NewFormatUtils(color bool) *FormatUtils {
	return &FormatUtils{color: color}
}

// FormatMainHeader creates a standardized main header
func (f *FormatUtils) FormatMainHeader(title string) string {
	return title + "\n" + strings.Repeat("=", HeaderWidth) + "\n\n"
}

// FormatSectionHeader creates a standardized section header
func (f *FormatUtils) FormatSectionHeader(title string) string {
	return strings.ToUpper(title) + "\n" + strings.Repeat("-", len(title)) + "\n"
}

// FormatLabelWithIndent creates a formatted label with specific indentation
func (f *FormatUtils) FormatLabelWithIndent(indent int, label string, value interface{}) string {
	return fmt.Sprintf("%s%s: %v\n", strings.Repeat(" ", indent), label, value)
}

// SeverityColor returns the color used for a severity
func (f *FormatUtils) SeverityColor(sev domain.Severity) string {
	switch sev {
	case domain.SeverityHard:
		return ColorRed
	case domain.SeverityStrong:
		return ColorYellow
	default:
		return ColorCyan
	}
}

// Colorize wraps s in color when colors are enabled
func (f *FormatUtils) Colorize(color, s string) string {
	if !f.color {
		return s
	}
	return color + s + ColorReset
}

// FormatIssue renders one issue on a single line, e.g.
// "[hard] H15 step s1 (equipment): HEAT step requires equipment"
func (f *FormatUtils) FormatIssue(is domain.Issue) string {
	var b strings.Builder
	b.WriteString(f.Colorize(f.SeverityColor(is.Severity), "["+string(is.Severity)+"]"))
	b.WriteString(" " + is.RuleID)
	if is.StepID != "" {
		b.WriteString(" step " + is.StepID)
	}
	if is.FieldPath != "" {
		b.WriteString(" (" + is.FieldPath + ")")
	}
	b.WriteString(": " + is.Message)
	return b.String()
}
