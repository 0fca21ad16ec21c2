package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/qx32"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/sequencer"
	"github.com/aretw0/qx32/pkg/session"
	"github.com/aretw0/qx32/pkg/validator"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// DefaultRunDuration is the processing budget of a run started by an agent.
// Agents do not watch the animation, so runs are compressed.
const DefaultRunDuration = 500 * time.Millisecond

const scriptsURI = "qx32://scripts"

// AskResponse is the structured result of the ask_cluster tool.
type AskResponse struct {
	Accepted bool                 `json:"accepted" jsonschema_description:"False when the question was rejected by the validator"`
	Phase    domain.Phase         `json:"phase" jsonschema_description:"Final phase of the session"`
	Question string               `json:"question,omitempty" jsonschema_description:"The normalized question"`
	Log      []domain.StepOutcome `json:"log" jsonschema_description:"Status lines committed during processing"`
	Result   *domain.Result       `json:"result,omitempty" jsonschema_description:"The final answer or fault"`
	Error    string               `json:"error,omitempty" jsonschema_description:"Rejection message shown to the user"`
}

// ValidateResponse is the structured result of the validate_question tool.
type ValidateResponse struct {
	Valid      bool   `json:"valid" jsonschema_description:"Whether the text is a yes/no question"`
	Language   string `json:"language,omitempty" jsonschema_description:"BCP 47 tag of the matching starter list"`
	Normalized string `json:"normalized" jsonschema_description:"Lowercased, trimmed form of the text"`
}

type askArgs struct {
	Question   string `mapstructure:"question"`
	DurationMS int    `mapstructure:"duration_ms"`
}

// Server exposes the cluster as an MCP server.
type Server struct {
	cluster      *qx32.Cluster
	duration     time.Duration
	maxInputSize int
	mcpServer    *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithRunDuration sets the default processing budget of ask_cluster.
func WithRunDuration(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.duration = d
		}
	}
}

// WithMaxInputSize bounds the size of questions passed to ask_cluster.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxInputSize = n
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(cluster *qx32.Cluster, opts ...Option) *Server {
	s := &Server{
		cluster:      cluster,
		duration:     DefaultRunDuration,
		maxInputSize: validator.DefaultMaxInputSize,
		mcpServer:    server.NewMCPServer("qx32-mcp", qx32.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("CORS Middleware", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	askTool := mcp.NewTool("ask_cluster",
		mcp.WithDescription("Ask the QX32 orbit cluster a yes/no question. Runs a full session and returns the status log and the verdict."),
		mcp.WithString("question", mcp.Required(), mcp.Description("A yes/no question, e.g. 'Is the sky blue?'")),
		mcp.WithNumber("duration_ms", mcp.Description("Processing budget in milliseconds (optional)")),
		mcp.WithOutputSchema[AskResponse](),
	)
	s.mcpServer.AddTool(askTool, mcp.NewStructuredToolHandler(s.handleAsk))

	validateTool := mcp.NewTool("validate_question",
		mcp.WithDescription("Check whether a text would be accepted as a yes/no question, without running a session."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Text to check")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))
}

func decodeArgs(args map[string]interface{}) (askArgs, error) {
	var out askArgs
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(args); err != nil {
		return out, fmt.Errorf("invalid arguments: %w", err)
	}
	return out, nil
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (AskResponse, error) {
	in, err := decodeArgs(args)
	if err != nil {
		return AskResponse{}, err
	}

	question, err := validator.SanitizeWithLimit(in.Question, s.maxInputSize)
	if err != nil {
		slog.Warn("MCP Ask: Input rejected", "error", err, "size", len(in.Question))
		return AskResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	duration := s.duration
	if in.DurationMS > 0 {
		duration = time.Duration(in.DurationMS) * time.Millisecond
	}

	snap, err := s.cluster.Ask(ctx, question,
		session.WithSequencer(
			sequencer.WithDuration(duration),
			sequencer.WithGlitch(sequencer.GlitchConfig{}),
		),
	)
	resp := AskResponse{
		Phase:  snap.Phase,
		Log:    snap.Log,
		Result: snap.Result,
		Error:  snap.Error,
	}
	if snap.Question != nil {
		resp.Question = snap.Question.Normalized
	}

	switch {
	case errors.Is(err, domain.ErrInvalidQuestion):
		return resp, nil
	case err != nil:
		return AskResponse{}, fmt.Errorf("ask failed: %w", err)
	}
	resp.Accepted = true
	return resp, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	in, err := decodeArgs(args)
	if err != nil {
		return ValidateResponse{}, err
	}
	tag, ok := validator.Classify(in.Question)
	resp := ValidateResponse{
		Valid:      ok,
		Normalized: domain.Normalize(in.Question),
	}
	if ok {
		resp.Language = tag.String()
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(scriptsURI, "Status scripts and fault catalog",
		mcp.WithMIMEType("application/json"),
	), s.readScripts)
}

func (s *Server) readScripts(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.cluster.Scripts())
	if err != nil {
		return nil, fmt.Errorf("failed to encode scripts: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      scriptsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
