// Package mcp exposes the Parley engine as an MCP server, so agent hosts
// can drive conversations as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ferrobraz/parley"
	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/ferrobraz/parley/pkg/graph"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// ConversationResponse is the unified tool output across operations.
type ConversationResponse struct {
	State        *domain.ConversationState `json:"state,omitempty" jsonschema_description:"The persisted conversation state"`
	Presentation *domain.Presentation      `json:"presentation,omitempty" jsonschema_description:"The UI-facing projection"`
	Advanced     bool                      `json:"advanced,omitempty" jsonschema_description:"Whether a recheck advanced the conversation"`
}

// conversationArgs are the common tool arguments.
type conversationArgs struct {
	User    string `mapstructure:"user"`
	Partner string `mapstructure:"partner"`
	Label   string `mapstructure:"label"`
	Target  string `mapstructure:"target"`
}

// Server wraps the Parley Engine and exposes it as an MCP Server.
type Server struct {
	engine    *parley.Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *parley.Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("parley-mcp", strings.TrimSpace(parley.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	openTool := mcp.NewTool("open_conversation",
		mcp.WithDescription("Open (or resume) a conversation with a dialogue partner, revealing the pending message if any."),
		mcp.WithString("user", mcp.Required(), mcp.Description("User id")),
		mcp.WithString("partner", mcp.Required(), mcp.Description("Dialogue partner name")),
		mcp.WithOutputSchema[ConversationResponse](),
	)
	s.mcpServer.AddTool(openTool, mcp.NewStructuredToolHandler(s.handleOpen))

	selectTool := mcp.NewTool("select_option",
		mcp.WithDescription("Select one of the options currently offered by the conversation."),
		mcp.WithString("user", mcp.Required(), mcp.Description("User id")),
		mcp.WithString("partner", mcp.Required(), mcp.Description("Dialogue partner name")),
		mcp.WithString("label", mcp.Required(), mcp.Description("Label of the offered option")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id of the offered option")),
		mcp.WithOutputSchema[ConversationResponse](),
	)
	s.mcpServer.AddTool(selectTool, mcp.NewStructuredToolHandler(s.handleSelect))

	recheckTool := mcp.NewTool("check_progression",
		mcp.WithDescription("Re-check a gated continuation; reveals it when the gate has opened since the last write."),
		mcp.WithString("user", mcp.Required(), mcp.Description("User id")),
		mcp.WithString("partner", mcp.Required(), mcp.Description("Dialogue partner name")),
		mcp.WithOutputSchema[ConversationResponse](),
	)
	s.mcpServer.AddTool(recheckTool, mcp.NewStructuredToolHandler(s.handleRecheck))

	s.mcpServer.AddTool(mcp.NewTool("list_partners",
		mcp.WithDescription("List the available dialogue partners."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.engine.Partners())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) decodeArgs(raw map[string]any) (conversationArgs, domain.ConversationKey, error) {
	var args conversationArgs
	if err := mapstructure.Decode(raw, &args); err != nil {
		return args, domain.ConversationKey{}, fmt.Errorf("invalid arguments: %w", err)
	}
	key := domain.ConversationKey{UserID: args.User, PartnerID: args.Partner}
	if err := key.Validate(); err != nil {
		return args, key, err
	}
	return args, key, nil
}

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest, raw map[string]any) (ConversationResponse, error) {
	_, key, err := s.decodeArgs(raw)
	if err != nil {
		return ConversationResponse{}, err
	}

	state, pending, err := s.engine.Open(ctx, key)
	if err != nil {
		return ConversationResponse{}, fmt.Errorf("open failed: %w", err)
	}
	if pending {
		// Agent hosts have no typing animation; reveal immediately.
		state, err = s.engine.Reveal(ctx, key)
		if err != nil {
			return ConversationResponse{}, fmt.Errorf("reveal failed: %w", err)
		}
	}

	pres, err := s.engine.Presentation(ctx, key)
	if err != nil {
		return ConversationResponse{}, fmt.Errorf("presentation failed: %w", err)
	}
	return ConversationResponse{State: state, Presentation: &pres}, nil
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest, raw map[string]any) (ConversationResponse, error) {
	args, key, err := s.decodeArgs(raw)
	if err != nil {
		return ConversationResponse{}, err
	}

	pres, err := s.engine.SelectOption(ctx, key, domain.Option{Label: args.Label, Target: args.Target})
	if err != nil {
		return ConversationResponse{}, fmt.Errorf("select failed: %w", err)
	}
	return ConversationResponse{Presentation: &pres}, nil
}

func (s *Server) handleRecheck(ctx context.Context, request mcp.CallToolRequest, raw map[string]any) (ConversationResponse, error) {
	_, key, err := s.decodeArgs(raw)
	if err != nil {
		return ConversationResponse{}, err
	}

	pres, advanced, err := s.engine.CheckProgression(ctx, key)
	if err != nil {
		return ConversationResponse{}, fmt.Errorf("recheck failed: %w", err)
	}
	return ConversationResponse{Presentation: &pres, Advanced: advanced}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("parley://partners", "Dialogue Partner Graphs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		partners := map[string]any{}
		for _, name := range s.engine.Partners() {
			g, err := s.engine.Registry().Graph(name)
			if err != nil {
				return nil, fmt.Errorf("failed to inspect graph %q: %w", name, err)
			}
			partners[name] = graphSummary(g)
		}
		jsonBytes, _ := json.Marshal(partners)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "parley://partners",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func graphSummary(g *graph.Graph) map[string]any {
	return map[string]any{
		"root":  g.Root,
		"nodes": g.NodeIDs(),
	}
}
