package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rmax-ai/mrpconf/pkg/form"
	"github.com/rmax-ai/mrpconf/pkg/loader"
	"github.com/rmax-ai/mrpconf/pkg/model"
)

// Server exposes the configuration loaders over the Model Context Protocol.
type Server struct {
	mcpServer *server.MCPServer
	loaders   *loader.Set
	logger    *log.Logger
}

// NewServer creates a new MCP server instance.
func NewServer(loaders *loader.Set, version string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		mcpServer: server.NewMCPServer("mrpconf", version),
		loaders:   loaders,
		logger:    logger,
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		"mrpconf://scenarios",
		"MRP Scenarios",
		mcp.WithResourceDescription("Scenarios that carry an operational configuration, with their provenance"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadScenarios)

	s.mcpServer.AddResource(mcp.NewResource(
		"mrpconf://technical",
		"Technical Configuration",
		mcp.WithResourceDescription("Global technical configuration with its provenance, secrets redacted"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadTechnical)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"list_scenarios",
		mcp.WithDescription("List available scenarios."),
	), s.handleListScenarios)

	s.mcpServer.AddTool(mcp.NewTool(
		"get_technical_config",
		mcp.WithDescription("Show the technical configuration. Secrets are redacted."),
	), s.handleGetTechnical)

	s.mcpServer.AddTool(mcp.NewTool(
		"get_operational_config",
		mcp.WithDescription("Show the operational configuration of a scenario."),
		mcp.WithString("scenario_id", mcp.Required(), mcp.Description("Scenario id, e.g. 'Standard_LDL_M1000'")),
	), s.handleGetOperational)

	s.mcpServer.AddTool(mcp.NewTool(
		"create_scenario",
		mcp.WithDescription("Create a new scenario."),
		mcp.WithString("scenario_id", mcp.Required(), mcp.Description("Unique scenario id")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Display description")),
	), s.handleCreateScenario)

	s.mcpServer.AddTool(mcp.NewTool(
		"set_technical_value",
		mcp.WithDescription("Set one technical configuration item and save the set. Booleans accept true or false."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Item name, e.g. 'datasourceDebug'")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
	), s.handleSetTechnical)

	s.mcpServer.AddTool(mcp.NewTool(
		"set_operational_value",
		mcp.WithDescription("Set one operational configuration item of a scenario and save the set."),
		mcp.WithString("scenario_id", mcp.Required(), mcp.Description("Scenario id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Item name, e.g. 'batchSize'")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
	), s.handleSetOperational)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"mrpconf-aware",
		mcp.WithPromptDescription("Explains scenarios and the two configuration sets"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadScenarios(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	res := s.loaders.Scenarios.Load(ctx)
	return jsonResource(request.Params.URI, res.Items, res.Provenance, res.Err)
}

func (s *Server) handleReadTechnical(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	res := s.loaders.Technical.Load(ctx)
	return jsonResource(request.Params.URI, model.Redact(res.Items), res.Provenance, res.Err)
}

func (s *Server) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.loaders.Scenarios.Load(ctx)
	return jsonResult(res.Items, res.Provenance, res.Err)
}

func (s *Server) handleGetTechnical(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.loaders.Technical.Load(ctx)
	return jsonResult(model.Redact(res.Items), res.Provenance, res.Err)
}

func (s *Server) handleGetOperational(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "scenario_id", "")
	if id == "" || model.IsSentinelID(id) {
		return mcp.NewToolResultError("scenario_id must name a real scenario"), nil
	}
	res := s.loaders.Operational(id).Load(ctx)
	return jsonResult(model.Redact(res.Items), res.Provenance, res.Err)
}

func (s *Server) handleCreateScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sc := model.Scenario{
		ScenarioID:  mcp.ParseString(request, "scenario_id", ""),
		Description: mcp.ParseString(request, "description", ""),
	}
	if err := s.loaders.CreateScenario(ctx, sc); err != nil {
		if errors.Is(err, model.ErrValidation) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Scenario %s created", sc.ScenarioID)), nil
}

func (s *Server) handleSetTechnical(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.setValue(ctx, s.loaders.Technical, request)
}

func (s *Server) handleSetOperational(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "scenario_id", "")
	if id == "" || model.IsSentinelID(id) {
		return mcp.NewToolResultError("scenario_id must name a real scenario"), nil
	}
	return s.setValue(ctx, s.loaders.Operational(id), request)
}

// setValue edits one item of a freshly loaded set. It refuses to write when
// the load fell back, since saving would overwrite the source with defaults.
func (s *Server) setValue(ctx context.Context, ld *loader.Loader[model.ConfigItem], request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	edit := form.Edit{
		Name:  mcp.ParseString(request, "name", ""),
		Value: mcp.ParseString(request, "value", ""),
	}

	res := ld.Load(ctx)
	if res.IsFallback() {
		return mcp.NewToolResultError(fmt.Sprintf("config source unavailable, not saving: %v", res.Err)), nil
	}

	items, err := form.Apply(res.Items, edit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := ld.Save(ctx, items); err != nil {
		s.logger.Error("mcp save failed", "kind", ld.Kind(), "scope", ld.Scope(), "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save configuration: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Configuration saved successfully! %s updated", edit.Name)), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "mrpconf-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are editing the configuration of an MRP planning system.

Concepts:
- Scenario: a named planning run (e.g. 'Standard_LDL_M1000'). Each has its own operational configuration.
- Technical configuration: global settings such as the datasource. Shared by every scenario.
- Operational configuration: per-scenario settings such as batch size or retry count.
- Items are typed: string, password or boolean. Booleans only accept true or false.

Read before you write. If a read reports that defaults are shown, the source is unavailable;
do not save in that state.
`

	return mcp.NewGetPromptResult(
		"mrpconf-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}

// resourceBody is the JSON document behind every resource. Provenance is
// "source" or "fallback"; Error is set only for fallback.
type resourceBody struct {
	Provenance string `json:"provenance"`
	Error      string `json:"error,omitempty"`
	Items      any    `json:"items"`
}

func jsonResource(uri string, items any, p loader.Provenance, loadErr error) ([]mcp.ResourceContents, error) {
	body := resourceBody{Provenance: p.String(), Items: items}
	if p == loader.FromFallback && loadErr != nil {
		body.Error = loadErr.Error()
	}
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func jsonResult(v any, p loader.Provenance, loadErr error) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	text := string(data)
	if p == loader.FromFallback {
		text = fmt.Sprintf("Config source unavailable (%v); showing defaults.\n%s", loadErr, text)
	}
	return mcp.NewToolResultText(text), nil
}
