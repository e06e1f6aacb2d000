package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/mcp"
	"github.com/ludo-technologies/linecheck/service"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bowlBuild = `{
  "id": "b1",
  "itemId": "chicken-bowl",
  "version": 1,
  "status": "draft",
  "steps": [
    {
      "id": "s1",
      "orderIndex": 0,
      "action": {"family": "HEAT"},
      "instruction": "Sous vide the chicken",
      "equipment": {"applianceId": "waterbath"},
      "time": {"durationSeconds": 1200, "isActive": false}
    }
  ]
}
`

const stationOnlyBuild = `{
  "id": "b2",
  "itemId": "rice-bowl",
  "version": 3,
  "status": "draft",
  "steps": [
    {"id": "s1", "orderIndex": 0, "action": {"family": "HEAT"}, "stationId": "hot"}
  ]
}
`

func setupBuilds(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chicken.json"), []byte(bowlBuild), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rice.json"), []byte(stationOnlyBuild), 0o644))
	return dir
}

func runToolTest(
	t *testing.T,
	arguments interface{},
	handlerFunc func(*mcp.HandlerSet, context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error),
) *mcplib.CallToolResult {
	t.Helper()
	deps := mcp.NewTestDependencies(service.NewBuildRepository(), nil, "")
	h := mcp.NewHandlerSet(deps)

	req := mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Arguments: arguments,
		},
	}

	res, err := handlerFunc(h, context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	return res
}

func decodeResult(t *testing.T, res *mcplib.CallToolResult, v interface{}) {
	t.Helper()
	require.False(t, res.IsError, mcplib.GetTextFromContent(res.Content[0]))
	require.NoError(t, json.Unmarshal([]byte(mcplib.GetTextFromContent(res.Content[0])), v))
}

func TestHandlers_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name      string
		arguments interface{}
		handler   func(*mcp.HandlerSet, context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error)
		wantText  string
	}{
		{
			name:      "validate with non-map arguments",
			arguments: "oops",
			handler:   (*mcp.HandlerSet).HandleValidateBuild,
			wantText:  "invalid arguments format",
		},
		{
			name:      "validate without path",
			arguments: map[string]interface{}{},
			handler:   (*mcp.HandlerSet).HandleValidateBuild,
			wantText:  "path parameter is required",
		},
		{
			name:      "validate missing path",
			arguments: map[string]interface{}{"path": "/does/not/exist"},
			handler:   (*mcp.HandlerSet).HandleValidateBuild,
			wantText:  "path does not exist",
		},
		{
			name:      "query without where",
			arguments: map[string]interface{}{"path": "."},
			handler:   (*mcp.HandlerSet).HandleQuerySteps,
			wantText:  "where parameter is required",
		},
		{
			name:      "plan without sets",
			arguments: map[string]interface{}{"path": ".", "where": "step.id = s1"},
			handler:   (*mcp.HandlerSet).HandlePlanBulkUpdate,
			wantText:  "sets parameter is required",
		},
		{
			name:      "plan with non-string sets",
			arguments: map[string]interface{}{"path": ".", "where": "step.id = s1", "sets": []interface{}{1.0}},
			handler:   (*mcp.HandlerSet).HandlePlanBulkUpdate,
			wantText:  "sets parameter is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runToolTest(t, tt.arguments, tt.handler)
			assert.True(t, res.IsError)
			assert.Contains(t, mcplib.GetTextFromContent(res.Content[0]), tt.wantText)
		})
	}
}

func TestHandleValidateBuild(t *testing.T) {
	dir := setupBuilds(t)

	res := runToolTest(t, map[string]interface{}{"path": dir}, (*mcp.HandlerSet).HandleValidateBuild)

	var resp domain.ValidationResponse
	decodeResult(t, res, &resp)
	assert.Equal(t, 2, resp.Summary.Builds)
	assert.Equal(t, 1, resp.Summary.ValidBuilds)
	assert.Equal(t, 1, resp.Summary.InvalidBuilds)
}

func TestHandleQuerySteps(t *testing.T) {
	dir := setupBuilds(t)

	res := runToolTest(t, map[string]interface{}{
		"path":  dir,
		"where": "step.action.family = HEAT AND step.stationId exists",
	}, (*mcp.HandlerSet).HandleQuerySteps)

	var resp domain.QueryResponse
	decodeResult(t, res, &resp)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "rice-bowl", resp.Matches[0].ItemID)
}

func TestHandleQuerySteps_InvalidQuery(t *testing.T) {
	dir := setupBuilds(t)

	res := runToolTest(t, map[string]interface{}{
		"path":  dir,
		"where": "step.action.family = HEAT and step.id = s1",
	}, (*mcp.HandlerSet).HandleQuerySteps)

	assert.True(t, res.IsError)
	assert.Contains(t, mcplib.GetTextFromContent(res.Content[0]), "invalid query")
}

func TestHandlePlanBulkUpdate_NeverWrites(t *testing.T) {
	dir := setupBuilds(t)

	res := runToolTest(t, map[string]interface{}{
		"path":  dir,
		"where": "step.equipment.applianceId = waterbath",
		"sets":  []interface{}{"step.equipment.applianceId=combi_oven"},
	}, (*mcp.HandlerSet).HandlePlanBulkUpdate)

	var resp domain.BulkUpdateResponse
	decodeResult(t, res, &resp)
	assert.True(t, resp.DryRun)
	require.Len(t, resp.Plan.Planned, 1)
	assert.Equal(t, "combi_oven", resp.Plan.Planned[0].Changes[0].To)

	data, err := os.ReadFile(filepath.Join(dir, "chicken.json"))
	require.NoError(t, err)
	assert.Equal(t, bowlBuild, string(data))
}

func TestHandleBuildGraph(t *testing.T) {
	dir := setupBuilds(t)

	res := runToolTest(t, map[string]interface{}{"path": filepath.Join(dir, "chicken.json")}, (*mcp.HandlerSet).HandleBuildGraph)

	var resp domain.GraphResponse
	decodeResult(t, res, &resp)
	assert.Equal(t, "b1", resp.BuildID)
	assert.Equal(t, []string{"s1"}, resp.TopologicalOrder)

	res = runToolTest(t, map[string]interface{}{"path": dir}, (*mcp.HandlerSet).HandleBuildGraph)
	assert.True(t, res.IsError)
}

func TestHandleListRules(t *testing.T) {
	res := runToolTest(t, map[string]interface{}{}, (*mcp.HandlerSet).HandleListRules)

	var catalog []domain.RuleInfo
	decodeResult(t, res, &catalog)
	assert.NotEmpty(t, catalog)
}

func TestConfigFileOverridesStartupConfig(t *testing.T) {
	dir := setupBuilds(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".linecheck.toml"),
		[]byte("[input]\ninclude_patterns = [\"**/chicken.json\"]\n"), 0o644))

	res := runToolTest(t, map[string]interface{}{"path": dir}, (*mcp.HandlerSet).HandleValidateBuild)

	var resp domain.ValidationResponse
	decodeResult(t, res, &resp)
	assert.Equal(t, 1, resp.Summary.Builds)
}

func TestRegisterTools(t *testing.T) {
	s := server.NewMCPServer("linecheck-test", "0.0.0", server.WithToolCapabilities(true))
	mcp.RegisterTools(s, mcp.NewHandlerSet(nil))

	tools := s.ListTools()
	for _, name := range []string{"validate_build", "query_steps", "plan_bulk_update", "build_graph", "list_rules"} {
		assert.Contains(t, tools, name)
	}
}
