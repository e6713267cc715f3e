// Package engine implements the survey progression core: the forward
// transition over the questionnaire graph, the deterministic undo that
// reconstructs the predecessor from the answer log, and the survey
// lifecycle.
//
// Every operation is a pure read-then-compute step over values the caller
// has already loaded. The engine never persists anything; it returns a new
// survey value (or the input unchanged) and the caller decides transactional
// boundaries. Callers must serialize Advance/Revert per survey.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/IlyaEmelin/chatbot-promotion/internal/logging"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/ports"
)

// Projector mirrors an accepted answer into an external profile record.
// A *domain.ValidationError return blocks the step; implementations swallow
// infrastructure failures themselves (see pkg/profile).
type Projector interface {
	Project(ctx context.Context, ownerRef, fieldRef, value string) error
}

// Engine is the survey progression core.
type Engine struct {
	graph     ports.GraphReader
	projector Projector
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithProjector enables external field projection.
func WithProjector(p Projector) Option {
	return func(e *Engine) {
		e.projector = p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine reading from the given graph.
func New(graph ports.GraphReader, opts ...Option) *Engine {
	e := &Engine{
		graph:  graph,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) emitEnter(ctx context.Context, s *domain.Survey, questionID string) {
	if e.hooks.OnQuestionEnter == nil {
		return
	}
	e.hooks.OnQuestionEnter(ctx, e.surveyEvent(s, questionID))
}

func (e *Engine) emitLeave(ctx context.Context, s *domain.Survey, questionID string) {
	if e.hooks.OnQuestionLeave == nil {
		return
	}
	e.hooks.OnQuestionLeave(ctx, e.surveyEvent(s, questionID))
}

func (e *Engine) emitReask(ctx context.Context, s *domain.Survey) {
	if e.hooks.OnReask == nil {
		return
	}
	e.hooks.OnReask(ctx, e.surveyEvent(s, s.CurrentQuestion))
}

func (e *Engine) emitProjection(ctx context.Context, s *domain.Survey, fieldRef string, blocked bool) {
	if e.hooks.OnProjection == nil {
		return
	}
	e.hooks.OnProjection(ctx, &domain.ProjectionEvent{
		Timestamp: time.Now().UTC(),
		SurveyID:  s.ID.String(),
		FieldRef:  fieldRef,
		Blocked:   blocked,
	})
}

func (e *Engine) emitRevert(ctx context.Context, s *domain.Survey, ok bool) {
	if e.hooks.OnRevert == nil {
		return
	}
	e.hooks.OnRevert(ctx, &domain.RevertEvent{
		Timestamp:  time.Now().UTC(),
		SurveyID:   s.ID.String(),
		QuestionID: s.CurrentQuestion,
		OK:         ok,
	})
}

func (e *Engine) surveyEvent(s *domain.Survey, questionID string) *domain.SurveyEvent {
	return &domain.SurveyEvent{
		Timestamp:  time.Now().UTC(),
		SurveyID:   s.ID.String(),
		OwnerRef:   s.OwnerRef,
		QuestionID: questionID,
		Status:     s.Status,
	}
}
