package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/lockstep"
	lshttp "github.com/aretw0/lockstep/pkg/adapters/http"
	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/report"
	"github.com/aretw0/lockstep/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const cacheResourceURI = "lockstep://cache"

// Solver defines what the MCP server needs from the lockstep service.
type Solver interface {
	Solve(ctx context.Context, input []byte, mode report.Mode, opts ...lockstep.Option) (*report.Report, error)
	Sessions() *session.Manager
}

// SolveArgs are the arguments of the solve_network tool.
type SolveArgs struct {
	Input       string `json:"input"`
	Mode        string `json:"mode,omitempty"`
	Start       string `json:"start,omitempty"`
	Goal        string `json:"goal,omitempty"`
	StartSuffix string `json:"start_suffix,omitempty"`
	GoalSuffix  string `json:"goal_suffix,omitempty"`
}

// RenderArgs are the arguments of the render_network tool.
type RenderArgs struct {
	Input string `json:"input"`
	Trace string `json:"trace,omitempty"`
}

// Server wraps the lockstep service and exposes it as an MCP Server.
type Server struct {
	solver    Solver
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(solver Solver) *Server {
	s := &Server{
		solver:    solver,
		mcpServer: server.NewMCPServer("lockstep-mcp", strings.TrimSpace(lockstep.Version)),
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
	solveTool := mcp.NewTool("solve_network",
		mcp.WithDescription("Count the steps a token needs to reach its goal, and the step at which every start token stands on a goal node at once."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Puzzle text: instruction line, blank line, then NODE = (LEFT, RIGHT) records")),
		mcp.WithString("mode", mcp.Description("single, multi or both (default both)")),
		mcp.WithString("start", mcp.Description("Start node of the single-goal question (default AAA)")),
		mcp.WithString("goal", mcp.Description("Goal node of the single-goal question (default ZZZ)")),
		mcp.WithString("start_suffix", mcp.Description("Suffix selecting start tokens (default A)")),
		mcp.WithString("goal_suffix", mcp.Description("Suffix selecting goal nodes (default Z)")),
		mcp.WithOutputSchema[report.Report](),
	)
	s.mcpServer.AddTool(solveTool, mcp.NewStructuredToolHandler(s.handleSolve))

	renderTool := mcp.NewTool("render_network",
		mcp.WithDescription("Render the network as a Mermaid flowchart, optionally highlighting the cycle of one token."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Puzzle text")),
		mcp.WithString("trace", mcp.Description("Node whose walk is highlighted")),
	)
	s.mcpServer.AddTool(renderTool, mcp.NewTypedToolHandler(s.handleRender))
}

func (s *Server) handleSolve(ctx context.Context, request mcp.CallToolRequest, args SolveArgs) (report.Report, error) {
	mode, err := report.ParseMode(args.Mode)
	if err != nil {
		return report.Report{}, err
	}

	var opts []lockstep.Option
	if args.Start != "" || args.Goal != "" {
		opts = append(opts, lockstep.WithSingleGoal(domain.NodeID(orDefault(args.Start, "AAA")), domain.NodeID(orDefault(args.Goal, "ZZZ"))))
	}
	if args.StartSuffix != "" || args.GoalSuffix != "" {
		opts = append(opts, lockstep.WithMultiGoal(orDefault(args.StartSuffix, "A"), orDefault(args.GoalSuffix, "Z")))
	}

	rep, err := s.solver.Solve(ctx, []byte(args.Input), mode, opts...)
	if err != nil {
		slog.Warn("MCP Solve failed", "error", err)
		return report.Report{}, fmt.Errorf("solve failed: %w", err)
	}
	return *rep, nil
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest, args RenderArgs) (*mcp.CallToolResult, error) {
	chart, err := lshttp.RenderMermaid(ctx, []byte(args.Input), args.Trace, "", "", 0)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}
	return mcp.NewToolResultText(chart), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(cacheResourceURI, "Cached Reports",
		mcp.WithMIMEType("application/json"),
	), s.handleCache)
}

func (s *Server) handleCache(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	keys, err := s.solver.Sessions().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached reports: %w", err)
	}
	jsonBytes, _ := json.Marshal(keys)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      cacheResourceURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
