package service

import (
	"fmt"

	"github.com/ludo-technologies/linecheck/domain"
)

// OutputFormatResolver resolves the output format from boolean format flags
// and the configured fallback.
type OutputFormatResolver struct{}

func NewOutputFormatResolver() *OutputFormatResolver { return &OutputFormatResolver{} }

// Determine evaluates format flags and returns the selected format. At most
// one flag may be set; with none, fallback is parsed (empty means text).
func (r *OutputFormatResolver) Determine(json, yaml, csv, dot bool, fallback string) (domain.OutputFormat, error) {
	formatCount := 0
	var format domain.OutputFormat

	if json {
		formatCount++
		format = domain.OutputFormatJSON
	}
	if yaml {
		formatCount++
		format = domain.OutputFormatYAML
	}
	if csv {
		formatCount++
		format = domain.OutputFormatCSV
	}
	if dot {
		formatCount++
		format = domain.OutputFormatDOT
	}

	if formatCount > 1 {
		return "", fmt.Errorf("only one output format flag can be specified")
	}
	if formatCount == 0 {
		return domain.ParseOutputFormat(fallback)
	}
	return format, nil
}
