// Package mcp exposes the survey session manager as an MCP server, so
// LLM-driven assistants can run the questionnaire on behalf of a user.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/IlyaEmelin/chatbot-promotion/internal/logging"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/engine"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/ports"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/session"
)

// StepResponse is the unified tool result: the survey and what to show next.
type StepResponse struct {
	Survey   *domain.Survey `json:"survey" jsonschema_description:"The survey aggregate after the operation"`
	Report   *engine.Report `json:"report,omitempty" jsonschema_description:"What to present to the user next"`
	Reverted *bool          `json:"reverted,omitempty" jsonschema_description:"Whether an undo was applied (revert tool only)"`
}

// Server exposes surveys over the Model Context Protocol.
type Server struct {
	sessions  *session.Manager
	graph     ports.GraphReader
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates the MCP server and registers its tools and resources.
func NewServer(sessions *session.Manager, g ports.GraphReader, version string, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		graph:     g,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("promo-survey", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over HTTP with server-sent events on the given port.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP server: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_survey",
		mcp.WithDescription("Start or resume the survey for an owner. Set restart to begin again after a finished survey."),
		mcp.WithString("owner_ref", mcp.Required(), mcp.Description("Stable identifier of the survey owner")),
		mcp.WithString("channel", mcp.Description("Entry channel: web or telegram")),
		mcp.WithBoolean("restart", mcp.Description("Restart a finished survey from scratch")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	answerTool := mcp.NewTool("answer",
		mcp.WithDescription("Apply one answer to the owner's survey and get the next question."),
		mcp.WithString("owner_ref", mcp.Required(), mcp.Description("Stable identifier of the survey owner")),
		mcp.WithString("answer", mcp.Required(), mcp.Description("The user's answer text")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(answerTool, mcp.NewStructuredToolHandler(s.handleAnswer))

	revertTool := mcp.NewTool("revert",
		mcp.WithDescription("Undo the owner's last answered step. Reports reverted=false when the step back is ambiguous."),
		mcp.WithString("owner_ref", mcp.Required(), mcp.Description("Stable identifier of the survey owner")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(revertTool, mcp.NewStructuredToolHandler(s.handleRevert))

	statusTool := mcp.NewTool("survey_status",
		mcp.WithDescription("Get the owner's survey and the current question without changing anything."),
		mcp.WithString("owner_ref", mcp.Required(), mcp.Description("Stable identifier of the survey owner")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleStatus))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the full questionnaire graph for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		questions, err := s.graph.Questions(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list questions: %v", err)), nil
		}
		raw, _ := json.Marshal(questions)
		return mcp.NewToolResultText(string(raw)), nil
	})
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	ownerRef, _ := args["owner_ref"].(string)
	channel, _ := args["channel"].(string)
	restart, _ := args["restart"].(bool)

	survey, report, err := s.sessions.Start(ctx, ownerRef, channel, restart)
	if err != nil {
		return StepResponse{}, fmt.Errorf("start survey: %w", err)
	}
	return StepResponse{Survey: survey, Report: report}, nil
}

func (s *Server) handleAnswer(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	ownerRef, _ := args["owner_ref"].(string)
	answer, _ := args["answer"].(string)

	survey, report, err := s.sessions.Advance(ctx, ownerRef, answer)
	if err != nil {
		return StepResponse{}, fmt.Errorf("answer: %w", err)
	}
	return StepResponse{Survey: survey, Report: report}, nil
}

func (s *Server) handleRevert(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	ownerRef, _ := args["owner_ref"].(string)

	survey, ok, err := s.sessions.Revert(ctx, ownerRef)
	if err != nil {
		return StepResponse{}, fmt.Errorf("revert: %w", err)
	}
	return StepResponse{Survey: survey, Reverted: &ok}, nil
}

func (s *Server) handleStatus(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	ownerRef, _ := args["owner_ref"].(string)

	survey, report, err := s.sessions.Get(ctx, ownerRef)
	if err != nil {
		return StepResponse{}, fmt.Errorf("survey status: %w", err)
	}
	return StepResponse{Survey: survey, Report: report}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("promo://graph", "Questionnaire Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		questions, err := s.graph.Questions(ctx)
		if err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
		raw, _ := json.Marshal(questions)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "promo://graph",
				MIMEType: "application/json",
				Text:     string(raw),
			},
		}, nil
	})
}
