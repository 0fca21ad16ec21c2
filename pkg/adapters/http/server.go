package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/qx32"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/session"
	"github.com/aretw0/qx32/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// Sessions is the part of session.Manager the server needs.
type Sessions interface {
	Create(ctx context.Context) (*session.Machine, error)
	Get(ctx context.Context, sessionID string) (*session.Machine, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// Server exposes sessions over a JSON API.
type Server struct {
	Sessions     Sessions
	Streams      *StreamManager
	MaxInputSize int
	metrics      http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager whose hooks are already attached to the sessions.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics mounts a metrics handler (usually promhttp) on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxInputSize bounds the size of submitted questions.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.MaxInputSize = n
		}
	}
}

// NewHandler creates the HTTP handler for the cluster.
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	s := &Server{
		Sessions:     sessions,
		MaxInputSize: validator.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager()
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/ask", s.Ask)
			r.Post("/keystroke", s.Keystroke)
			r.Post("/rerun", s.Rerun)
			r.Post("/reset", s.Reset)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>QX32 Orbit Cluster API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// AskRequest is the body of POST /sessions/{id}/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSpec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	} else if err != nil {
		slog.Error("Failed to load OpenAPI spec", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "qx32-http",
		"version":     qx32.Version,
		"api_version": apiVersion,
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	m, err := s.Sessions.Create(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("Session created", "session_id", m.ID())
	writeJSON(w, http.StatusCreated, m.Snapshot())
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.Streams.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// Ask handles the POST /sessions/{id}/ask request.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var body AskRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		slog.Warn("Ask: Invalid request body", "error", err)
		writeErrorStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}

	question, err := validator.SanitizeWithLimit(body.Question, s.MaxInputSize)
	if err != nil {
		slog.Warn("Ask: Input rejected", "error", err, "size", len(body.Question))
		writeErrorStatus(w, http.StatusBadRequest, fmt.Sprintf("invalid input: %v", err))
		return
	}

	if err := m.Submit(question); err != nil {
		writeError(w, err)
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		writeJSON(w, http.StatusAccepted, m.Snapshot())
		return
	}
	if _, err := m.Await(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

// Keystroke handles the POST /sessions/{id}/keystroke request.
func (s *Server) Keystroke(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	m.Keystroke()
	w.WriteHeader(http.StatusNoContent)
}

// Rerun handles the POST /sessions/{id}/rerun request.
func (s *Server) Rerun(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := m.Rerun(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

// Reset handles the POST /sessions/{id}/reset request.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := m.Reset(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
// The first event is a snapshot of the session, followed by live events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		slog.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionID := m.ID()
	slog.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if snap, err := json.Marshal(m.Snapshot()); err == nil {
		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snap)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			slog.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Machine, bool) {
	m, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return m, true
}

// -- Helpers --

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

func writeErrorStatus(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidQuestion):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionClosed), errors.Is(err, session.ErrAborted):
		status = http.StatusGone
	case errors.Is(err, validator.ErrInputTooLarge), errors.Is(err, validator.ErrInvalidUTF8):
		status = http.StatusBadRequest
	default:
		slog.Error("Request failed", "error", err)
	}
	writeErrorStatus(w, status, err.Error())
}
