// Package http exposes the survey session manager over a JSON REST API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IlyaEmelin/chatbot-promotion/internal/logging"
	"github.com/IlyaEmelin/chatbot-promotion/internal/presentation/graph"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/engine"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/ports"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/session"
)

// Server handles the survey REST API.
type Server struct {
	sessions *session.Manager
	graph    ports.GraphReader
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes the gatherer's metrics on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler builds the API router.
func NewHandler(sessions *session.Manager, g ports.GraphReader, opts ...Option) http.Handler {
	s := &Server{
		sessions: sessions,
		graph:    g,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/surveys", s.handleCreate)
		r.Get("/surveys", s.handleList)
		r.Route("/surveys/{owner}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Patch("/", s.handleAdvance)
			r.Delete("/", s.handleDelete)
			r.Patch("/revert", s.handleRevert)
			r.Patch("/processing", s.handleMarkProcessing)
			r.Patch("/complete", s.handleComplete)
			r.Patch("/reject", s.handleReject)
		})
		r.Get("/graph", s.handleGraph)
	})
	return r
}

// surveyResponse is the wire shape of a survey plus its presentation.
type surveyResponse struct {
	Survey *domain.Survey `json:"survey"`
	Report *engine.Report `json:"report,omitempty"`
	// Reverted is set on revert responses only.
	Reverted *bool `json:"reverted,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	// Field is set for validation failures.
	Field string `json:"field,omitempty"`
}

type createRequest struct {
	OwnerRef string `json:"owner_ref"`
	Channel  string `json:"channel"`
	Restart  bool   `json:"restart"`
}

type advanceRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.OwnerRef == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("owner_ref is required"))
		return
	}

	survey, report, err := s.sessions.Start(r.Context(), req.OwnerRef, req.Channel, req.Restart)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, surveyResponse{Survey: survey, Report: report})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	owners, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"owners": owners})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	survey, report, err := s.sessions.Get(r.Context(), chi.URLParam(r, "owner"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, surveyResponse{Survey: survey, Report: report})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	survey, report, err := s.sessions.Advance(r.Context(), chi.URLParam(r, "owner"), req.Answer)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, surveyResponse{Survey: survey, Report: report})
}

func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	survey, ok, err := s.sessions.Revert(r.Context(), chi.URLParam(r, "owner"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, surveyResponse{Survey: survey, Reverted: &ok})
}

func (s *Server) handleMarkProcessing(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.sessions.MarkProcessing)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.sessions.Complete)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.sessions.Reject)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, ownerRef string) (*domain.Survey, error)) {
	survey, err := apply(r.Context(), chi.URLParam(r, "owner"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, surveyResponse{Survey: survey})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "owner")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "mermaid" {
		out, err := graph.GenerateMermaid(r.Context(), s.graph, nil)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(out))
		return
	}

	questions, err := s.graph.Questions(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

// writeDomainError maps domain failures onto HTTP statuses: unknown surveys
// are 404, bad input and configuration faults are 400 and 422, forbidden
// lifecycle actions are 409.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: vErr.Error(), Field: vErr.Field})
		return
	}
	var cfgErr *domain.ConfigError
	switch {
	case errors.Is(err, domain.ErrSurveyNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrActionNotAllowed):
		s.writeError(w, http.StatusConflict, err)
	case errors.As(err, &cfgErr):
		s.writeError(w, http.StatusBadRequest, err)
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
