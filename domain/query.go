package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// ClauseOp is the operator of a where clause
type ClauseOp string

const (
	OpExists    ClauseOp = "exists"
	OpEquals    ClauseOp = "="
	OpNotEquals ClauseOp = "!="
	OpIn        ClauseOp = "in"
)

// ValueKind is the primitive type of a DSL value
type ValueKind string

const (
	ValueString ValueKind = "string"
	ValueNumber ValueKind = "number"
	ValueBool   ValueKind = "boolean"
)

// Value is a primitive value of the query DSL
type Value struct {
	Kind ValueKind `json:"kind" yaml:"kind"`
	Str  string    `json:"str,omitempty" yaml:"str,omitempty"`
	Num  float64   `json:"num,omitempty" yaml:"num,omitempty"`
	Bool bool      `json:"bool,omitempty" yaml:"bool,omitempty"`
}

// StringValue builds a string value
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// NumberValue builds a numeric value
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Num: n} }

// BoolValue builds a boolean value
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// String renders the value in its canonical text form
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// Interface returns the value as a plain Go primitive
func (v Value) Interface() interface{} {
	switch v.Kind {
	case ValueNumber:
		return v.Num
	case ValueBool:
		return v.Bool
	default:
		return v.Str
	}
}

// MarshalJSON renders the value as a plain JSON primitive
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON accepts the plain primitive written by MarshalJSON
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case string:
		*v = StringValue(x)
	case float64:
		*v = NumberValue(x)
	case bool:
		*v = BoolValue(x)
	default:
		return fmt.Errorf("query value must be a string, number or boolean, got %s", string(data))
	}
	return nil
}

// MarshalYAML renders the value as a plain YAML scalar
func (v Value) MarshalYAML() (interface{}, error) {
	return v.Interface(), nil
}

// Equal compares two values by canonical text form, so a bare 12 matches a
// stored "12" and a quoted "true" matches a stored true.
func (v Value) Equal(other Value) bool {
	if v.Kind == other.Kind {
		switch v.Kind {
		case ValueNumber:
			return v.Num == other.Num
		case ValueBool:
			return v.Bool == other.Bool
		default:
			return v.Str == other.Str
		}
	}
	return v.String() == other.String()
}

// Clause is one predicate of a where string
type Clause struct {
	Field  string   `json:"field" yaml:"field"`
	Op     ClauseOp `json:"op" yaml:"op"`
	Values []Value  `json:"values,omitempty" yaml:"values,omitempty"`
}

// QueryMatch is one matched step
type QueryMatch struct {
	BuildID    string      `json:"buildId" yaml:"buildId"`
	ItemID     string      `json:"itemId" yaml:"itemId"`
	Version    int         `json:"version" yaml:"version"`
	Status     BuildStatus `json:"status" yaml:"status"`
	StepID     string      `json:"stepId" yaml:"stepId"`
	OrderIndex int         `json:"orderIndex" yaml:"orderIndex"`
	Label      string      `json:"label" yaml:"label"`
}

// QueryRequest represents input for a query over build files
type QueryRequest struct {
	Paths           []string
	IncludePatterns []string
	ExcludePatterns []string
	Where           string
	// LabelWidth caps step labels in runes; zero uses the default
	LabelWidth int

	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string
}

// QueryResponse is the result of a query
type QueryResponse struct {
	Where   string       `json:"where" yaml:"where"`
	Clauses []Clause     `json:"clauses" yaml:"clauses"`
	Matches []QueryMatch `json:"matches" yaml:"matches"`
	// Skipped lists files that failed to load or parse
	Skipped     []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	GeneratedAt string   `json:"generatedAt" yaml:"generatedAt"`
}

// QueryService runs where-queries over build files
type QueryService interface {
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)
}

// QueryOutputFormatter renders query responses
type QueryOutputFormatter interface {
	Write(response *QueryResponse, format OutputFormat, writer io.Writer) error
}
