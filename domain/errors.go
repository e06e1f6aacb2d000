package domain

import (
	"fmt"
	"strings"
)

// DomainError represents errors in the domain layer
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e DomainError) Unwrap() error {
	return e.Cause
}

// Domain error codes
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeParseError        = "PARSE_ERROR"
	ErrCodeQueryError        = "QUERY_ERROR"
	ErrCodeAnalysisError     = "ANALYSIS_ERROR"
	ErrCodeConfigError       = "CONFIG_ERROR"
	ErrCodeOutputError       = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) error {
	return DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string, cause error) error {
	return NewDomainError(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path), cause)
}

// NewParseError creates a parse error
func NewParseError(file string, cause error) error {
	return NewDomainError(ErrCodeParseError, fmt.Sprintf("failed to parse build: %s", file), cause)
}

// NewAnalysisError creates an analysis error
func NewAnalysisError(message string, cause error) error {
	return NewDomainError(ErrCodeAnalysisError, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewOutputError creates an output error
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError creates an unsupported format error
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported format: %s", format), nil)
}

// NewValidationError creates a validation error
func NewValidationError(message string) error {
	return NewDomainError(ErrCodeInvalidInput, message, nil)
}

// Schema issue codes
const (
	IssueUnrecognizedKey  = "unrecognized_key"
	IssueInvalidType      = "invalid_type"
	IssueInvalidEnumValue = "invalid_enum_value"
	IssueRequired         = "required"
	IssueTooSmall         = "too_small"
	IssueInvalidFormat    = "invalid_format"
	IssueInvalidJSON      = "invalid_json"
	IssueInvalidValue     = "invalid_value"
)

// SchemaIssue is one path-tagged shape violation
type SchemaIssue struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
	Code    string `json:"code" yaml:"code"`
}

// SchemaError is returned when a document does not conform to the build schema
type SchemaError struct {
	Issues []SchemaIssue
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 0 {
		return "build does not match schema"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		path := is.Path
		if path == "" {
			path = "(root)"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", path, is.Message))
	}
	return fmt.Sprintf("build does not match schema (%d issue(s)): %s", len(e.Issues), strings.Join(parts, "; "))
}

// QueryError is a malformed where string or set expression
type QueryError struct {
	Input   string
	Pos     int
	Message string
}

func (e *QueryError) Error() string {
	if e.Pos >= 0 && e.Input != "" {
		return fmt.Sprintf("query error at position %d in %q: %s", e.Pos, e.Input, e.Message)
	}
	if e.Input != "" {
		return fmt.Sprintf("query error in %q: %s", e.Input, e.Message)
	}
	return "query error: " + e.Message
}

// NewQueryError creates a query error without position information
func NewQueryError(input, message string) *QueryError {
	return &QueryError{Input: input, Pos: -1, Message: message}
}
