// Package schema implements the strict runtime parser for line build documents.
//
// Parsing runs in two passes: the document is first evaluated against an
// embedded JSON Schema so every shape violation is reported with a normalized
// path, then decoded into domain.Build with unknown fields disallowed.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed build.schema.json
var buildSchemaJSON string

var (
	compileOnce sync.Once
	compiled    *gojsonschema.Schema
	compileErr  error
)

// Document returns the embedded JSON Schema for build documents
func Document() string {
	return buildSchemaJSON
}

func buildSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled, compileErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(buildSchemaJSON))
	})
	return compiled, compileErr
}

// ParseBuild strictly parses a build document. On shape violations it returns
// a *domain.SchemaError whose issues are sorted by path, code and message.
func ParseBuild(data []byte) (*domain.Build, error) {
	if issue, ok := checkJSON(data); !ok {
		return nil, &domain.SchemaError{Issues: []domain.SchemaIssue{issue}}
	}

	s, err := buildSchema()
	if err != nil {
		return nil, fmt.Errorf("compile build schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &domain.SchemaError{Issues: []domain.SchemaIssue{{
			Message: err.Error(),
			Code:    domain.IssueInvalidJSON,
		}}}
	}
	if !result.Valid() {
		return nil, &domain.SchemaError{Issues: convertErrors(result.Errors())}
	}

	build, err := decodeBuild(data)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && strings.HasPrefix(typeErr.Value, "number") {
		// the schema accepts integral floats such as 1.0 for integer fields
		if normalized, changed := normalizeIntegers(data); changed {
			build, err = decodeBuild(normalized)
		}
	}
	if err != nil {
		return nil, &domain.SchemaError{Issues: []domain.SchemaIssue{decodeIssue(err)}}
	}
	if build.Steps == nil {
		build.Steps = []domain.Step{}
	}
	return build, nil
}

func decodeBuild(data []byte) (*domain.Build, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var build domain.Build
	if err := dec.Decode(&build); err != nil {
		return nil, err
	}
	return &build, nil
}

// opaqueKeys name payloads that are carried verbatim and never rewritten
var opaqueKeys = map[string]bool{"tracks": true, "operations": true, "overrides": true}

// maxExactInteger is the largest magnitude a float64 holds without rounding
const maxExactInteger = 1 << 53

// normalizeIntegers rewrites integral numbers written with a fraction or
// exponent (1.0, 2e1) as plain integers outside opaque payloads. It reports
// whether anything changed.
func normalizeIntegers(raw []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return raw, false
	}
	switch c := trimmed[0]; {
	case c == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return raw, false
		}
		changed := false
		for k, v := range obj {
			if opaqueKeys[k] {
				continue
			}
			if nv, ok := normalizeIntegers(v); ok {
				obj[k] = nv
				changed = true
			}
		}
		if !changed {
			return raw, false
		}
		out, err := json.Marshal(obj)
		if err != nil {
			return raw, false
		}
		return out, true
	case c == '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return raw, false
		}
		changed := false
		for i, v := range arr {
			if nv, ok := normalizeIntegers(v); ok {
				arr[i] = nv
				changed = true
			}
		}
		if !changed {
			return raw, false
		}
		out, err := json.Marshal(arr)
		if err != nil {
			return raw, false
		}
		return out, true
	case c == '-' || (c >= '0' && c <= '9'):
		text := string(trimmed)
		if !strings.ContainsAny(text, ".eE") {
			return raw, false
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactInteger {
			return raw, false
		}
		return []byte(strconv.FormatInt(int64(f), 10)), true
	default:
		return raw, false
	}
}

// MarshalBuild renders a build as an indented JSON document ending in a newline
func MarshalBuild(build *domain.Build) ([]byte, error) {
	if build == nil {
		return nil, errors.New("nil build")
	}
	out := build
	if build.Steps == nil {
		out = build.Clone()
		out.Steps = []domain.Step{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Reparse round-trips a build through MarshalBuild and ParseBuild
func Reparse(build *domain.Build) (*domain.Build, error) {
	data, err := MarshalBuild(build)
	if err != nil {
		return nil, err
	}
	return ParseBuild(data)
}

// IsSchemaError reports whether err carries schema issues and returns them
func IsSchemaError(err error) ([]domain.SchemaIssue, bool) {
	var se *domain.SchemaError
	if errors.As(err, &se) {
		return se.Issues, true
	}
	return nil, false
}

func checkJSON(data []byte) (domain.SchemaIssue, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return domain.SchemaIssue{Message: fmt.Sprintf("invalid JSON: %v", err), Code: domain.IssueInvalidJSON}, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return domain.SchemaIssue{Message: "invalid JSON: unexpected data after document", Code: domain.IssueInvalidJSON}, false
	}
	return domain.SchemaIssue{}, true
}

func convertErrors(errs []gojsonschema.ResultError) []domain.SchemaIssue {
	seen := make(map[domain.SchemaIssue]bool, len(errs))
	issues := make([]domain.SchemaIssue, 0, len(errs))
	for _, e := range errs {
		path := NormalizePath(e.Field())
		code := issueCode(e.Type())
		switch e.Type() {
		case "additional_property_not_allowed", "required":
			if prop, ok := e.Details()["property"].(string); ok && path != prop && !strings.HasSuffix(path, "."+prop) {
				path = joinPath(path, prop)
			}
		}
		issue := domain.SchemaIssue{Path: path, Message: issueMessage(e, path), Code: code}
		if seen[issue] {
			continue
		}
		seen[issue] = true
		issues = append(issues, issue)
	}
	SortIssues(issues)
	return issues
}

// SortIssues orders issues by path, code and message
func SortIssues(issues []domain.SchemaIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}

func issueCode(t string) string {
	switch t {
	case "additional_property_not_allowed":
		return domain.IssueUnrecognizedKey
	case "invalid_type":
		return domain.IssueInvalidType
	case "enum":
		return domain.IssueInvalidEnumValue
	case "required":
		return domain.IssueRequired
	case "number_gte", "number_gt", "string_gte", "array_min_items":
		return domain.IssueTooSmall
	case "format":
		return domain.IssueInvalidFormat
	default:
		return domain.IssueInvalidValue
	}
}

// NormalizePath converts a schema context path such as "steps.2.action.family"
// into dot/bracket notation ("steps[2].action.family"). The root is "".
func NormalizePath(field string) string {
	field = strings.TrimPrefix(field, "(root)")
	field = strings.TrimPrefix(field, ".")
	if field == "" {
		return ""
	}
	var b strings.Builder
	for i, seg := range strings.Split(field, ".") {
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// issueMessage describes a schema error from its details so the message
// never repeats the schema library's own dotted path
func issueMessage(e gojsonschema.ResultError, path string) string {
	d := e.Details()
	switch e.Type() {
	case "invalid_type":
		return fmt.Sprintf("expected %v, received %v", d["expected"], d["given"])
	case "enum":
		return fmt.Sprintf("invalid enum value, expected one of %v", d["allowed"])
	case "required":
		return fmt.Sprintf("%v is required", d["property"])
	case "additional_property_not_allowed":
		return fmt.Sprintf("unrecognized key %q", fmt.Sprint(d["property"]))
	case "number_gte":
		return fmt.Sprintf("must be greater than or equal to %v", d["min"])
	case "number_gt":
		return fmt.Sprintf("must be greater than %v", d["min"])
	case "string_gte":
		return fmt.Sprintf("must contain at least %v character(s)", d["min"])
	case "array_min_items":
		return fmt.Sprintf("must contain at least %v item(s)", d["min"])
	case "format":
		return fmt.Sprintf("does not match format %v", d["format"])
	}
	where := path
	if where == "" {
		where = "document"
	}
	return strings.ReplaceAll(e.Description(), e.Field(), where)
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func decodeIssue(err error) domain.SchemaIssue {
	// The decoder reports fields without array indexes, so decode failures
	// are anchored at the root and name the field in the message.
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return domain.SchemaIssue{
			Message: fmt.Sprintf("%s: expected %s, received %s", typeErr.Field, typeErr.Type, typeErr.Value),
			Code:    domain.IssueInvalidType,
		}
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "json: unknown field ") {
		key := strings.Trim(strings.TrimPrefix(msg, "json: unknown field "), `"`)
		return domain.SchemaIssue{Message: fmt.Sprintf("unrecognized key %q", key), Code: domain.IssueUnrecognizedKey}
	}
	return domain.SchemaIssue{Message: msg, Code: domain.IssueInvalidValue}
}
