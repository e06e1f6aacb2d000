package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/rules"
	"github.com/mark3labs/mcp-go/mcp"
)

// HandlerSet bundles MCP tool handlers with their shared dependencies.
type HandlerSet struct {
	deps *Dependencies
}

// NewHandlerSet creates a handler set backed by deps.
func NewHandlerSet(deps *Dependencies) *HandlerSet {
	if deps == nil {
		deps = NewDependencies(nil, "", nil)
	}
	return &HandlerSet{deps: deps}
}

// HandleValidateBuild handles the validate_build tool
func (h *HandlerSet) HandleValidateBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, errResult := requirePath(args)
	if errResult != nil {
		return errResult, nil
	}

	cfg := h.deps.ConfigFor(path)

	bomPath := cfg.Validation.BOMPath
	if bp, ok := args["bom_path"].(string); ok && bp != "" {
		bomPath = bp
	}
	parallel := cfg.Validation.Parallel
	if p, ok := args["parallel"].(bool); ok {
		parallel = p
	}

	useCase, err := h.deps.BuildValidateUseCase()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build validate use case: %v", err)), nil
	}

	req := domain.ValidationRequest{
		Paths:           []string{path},
		IncludePatterns: cfg.Input.IncludePatterns,
		ExcludePatterns: cfg.Input.ExcludePatterns,
		BOMPath:         bomPath,
		Parallel:        parallel,
		MaxWorkers:      cfg.Validation.MaxWorkers,
		OutputFormat:    domain.OutputFormatJSON,
		OutputWriter:    io.Discard,
		FailOnWarnings:  cfg.Validation.FailOnWarnings,
	}

	result, err := useCase.Execute(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", err)), nil
	}
	return jsonResult(result)
}

// HandleQuerySteps handles the query_steps tool
func (h *HandlerSet) HandleQuerySteps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, errResult := requirePath(args)
	if errResult != nil {
		return errResult, nil
	}
	where, ok := args["where"].(string)
	if !ok || where == "" {
		return mcp.NewToolResultError("where parameter is required and must be a string"), nil
	}

	cfg := h.deps.ConfigFor(path)
	labelWidth := cfg.Query.LabelWidth
	if lw, ok := args["label_width"].(float64); ok {
		labelWidth = int(lw)
	}

	useCase, err := h.deps.BuildQueryUseCase()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build query use case: %v", err)), nil
	}

	result, err := useCase.Execute(ctx, domain.QueryRequest{
		Paths:           []string{path},
		IncludePatterns: cfg.Input.IncludePatterns,
		ExcludePatterns: cfg.Input.ExcludePatterns,
		Where:           where,
		LabelWidth:      labelWidth,
		OutputFormat:    domain.OutputFormatJSON,
		OutputWriter:    io.Discard,
	})
	if err != nil {
		return queryErrorResult(err), nil
	}
	return jsonResult(result)
}

// HandlePlanBulkUpdate handles the plan_bulk_update tool. Plans are never
// applied from MCP; the caller reviews the diff and applies it with the CLI.
func (h *HandlerSet) HandlePlanBulkUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, errResult := requirePath(args)
	if errResult != nil {
		return errResult, nil
	}
	where, ok := args["where"].(string)
	if !ok || where == "" {
		return mcp.NewToolResultError("where parameter is required and must be a string"), nil
	}
	sets, err := stringSlice(args["sets"])
	if err != nil || len(sets) == 0 {
		return mcp.NewToolResultError("sets parameter is required and must be an array of field=value strings"), nil
	}

	cfg := h.deps.ConfigFor(path)
	useCase, err := h.deps.BuildBulkUpdateUseCase()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build bulk update use case: %v", err)), nil
	}

	result, err := useCase.Execute(ctx, domain.BulkUpdateRequest{
		Paths:           []string{path},
		IncludePatterns: cfg.Input.IncludePatterns,
		ExcludePatterns: cfg.Input.ExcludePatterns,
		Where:           where,
		Sets:            sets,
		OutputFormat:    domain.OutputFormatJSON,
		OutputWriter:    io.Discard,
	})
	if err != nil {
		return queryErrorResult(err), nil
	}
	return jsonResult(result)
}

// HandleBuildGraph handles the build_graph tool
func (h *HandlerSet) HandleBuildGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, errResult := requirePath(args)
	if errResult != nil {
		return errResult, nil
	}

	result, err := h.deps.BuildGraphUseCase().Execute(ctx, domain.GraphRequest{
		Path:         path,
		OutputFormat: domain.OutputFormatJSON,
		OutputWriter: io.Discard,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph failed: %v", err)), nil
	}
	return jsonResult(result)
}

// HandleListRules handles the list_rules tool
func (h *HandlerSet) HandleListRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(rules.Catalog())
}

func requirePath(args map[string]interface{}) (string, *mcp.CallToolResult) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", mcp.NewToolResultError("path parameter is required and must be a string")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path))
	}
	return path, nil
}

// stringSlice accepts the []interface{} that JSON arrays decode into
func stringSlice(v interface{}) ([]string, error) {
	switch items := v.(type) {
	case []string:
		return items, nil
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected array, got %T", v)
	}
}

func queryErrorResult(err error) *mcp.CallToolResult {
	var qe *domain.QueryError
	if errors.As(err, &qe) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid query: %v", qe))
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
