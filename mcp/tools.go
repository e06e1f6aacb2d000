package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all linecheck MCP tools with the server
func RegisterTools(s *server.MCPServer, h *HandlerSet) {
	s.AddTool(mcp.NewTool("validate_build",
		mcp.WithDescription("Validate line build JSON files against the schema and the rule catalog"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Build file or directory of build files")),
		mcp.WithString("bom_path",
			mcp.Description("Optional BOM file (JSON or YAML) for packaging coverage checks")),
		mcp.WithBoolean("parallel",
			mcp.Description("Evaluate the rules of each build concurrently (default: from config)")),
	), h.HandleValidateBuild)

	s.AddTool(mcp.NewTool("query_steps",
		mcp.WithDescription("Find steps matching a where expression, e.g. `step.action.family = HEAT AND step.equipment.applianceId in [waterbath, combi_oven]`"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Build file or directory of build files")),
		mcp.WithString("where",
			mcp.Required(),
			mcp.Description("Clauses joined by uppercase AND; operators are =, !=, in [...] and exists")),
		mcp.WithNumber("label_width",
			mcp.Description("Maximum step label length in characters (default: 96)")),
	), h.HandleQuerySteps)

	s.AddTool(mcp.NewTool("plan_bulk_update",
		mcp.WithDescription("Plan a bulk edit of matching steps and report the changes and validation outcome of each build. Never writes files."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Build file or directory of build files")),
		mcp.WithString("where",
			mcp.Required(),
			mcp.Description("Where expression selecting the steps to edit")),
		mcp.WithArray("sets",
			mcp.Required(),
			mcp.WithStringItems(),
			mcp.Description("Assignments such as step.equipment.applianceId=combi_oven")),
	), h.HandlePlanBulkUpdate)

	s.AddTool(mcp.NewTool("build_graph",
		mcp.WithDescription("Describe the step dependency graph of one build: edges, topological order and cycles"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Single build file")),
	), h.HandleBuildGraph)

	s.AddTool(mcp.NewTool("list_rules",
		mcp.WithDescription("List the validation rule catalog with severities"),
	), h.HandleListRules)
}
