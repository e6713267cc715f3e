package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
)

// Start returns the survey to serve for ownerRef on the given channel.
//
// An existing unfinished survey is always resumed as-is. A finished one is
// reset back to the entry question only when restart is requested and the
// current status allows it; otherwise the finished survey is returned
// unchanged so the caller can present the outcome. Pass existing as nil when
// the owner has no survey yet.
//
// The channel selects the entry question by its type tag, falling back to
// the generic start tag when the channel has no dedicated entry point. A
// graph with no entry at all is a configuration fault.
func (e *Engine) Start(ctx context.Context, existing *domain.Survey, ownerRef, channel string, restart bool) (*domain.Survey, bool, error) {
	if existing != nil {
		if !existing.Finished() {
			return existing, false, nil
		}
		if !restart || !existing.Status.Allows(domain.ActionRestart) {
			return existing, false, nil
		}
	}

	entry, err := e.entryQuestion(ctx, channel)
	if err != nil {
		return nil, false, err
	}

	var s *domain.Survey
	if existing != nil {
		// Restart wipes progress but keeps the aggregate: same ID, same
		// CreatedAt. There is one survey per owner for its whole life.
		s = existing.Clone()
		s.CurrentQuestion = entry.ID
		s.Status = domain.StatusNew
		s.AnswerLog = []string{}
		s.VersionFingerprint = entry.VersionToken
		s.UpdatedAt = entry.UpdatedAt
	} else {
		s = &domain.Survey{
			ID:              uuid.New(),
			OwnerRef:        ownerRef,
			CurrentQuestion: entry.ID,
			Status:          domain.StatusNew,
			AnswerLog:       []string{},

			// The zero fingerprint folded with the entry token is the token
			// itself, so a fresh survey starts there directly.
			VersionFingerprint: entry.VersionToken,
			CreatedAt:          time.Now().UTC(),
			UpdatedAt:          entry.UpdatedAt,
		}
	}

	e.emitEnter(ctx, s, entry.ID)
	e.logger.Debug("survey started",
		"survey_id", s.ID,
		"owner_ref", ownerRef,
		"channel", channel,
		"entry", entry.ID,
	)
	return s, true, nil
}

// entryQuestion resolves the channel's entry node, trying the dedicated tag
// first and the generic start tag second.
func (e *Engine) entryQuestion(ctx context.Context, channel string) (*domain.Question, error) {
	tag := domain.EntryTypeForChannel(channel)
	entry, err := e.graph.EntryQuestion(ctx, tag)
	if errors.Is(err, domain.ErrNoEntryQuestion) && tag != domain.QuestionTypeStart {
		entry, err = e.graph.EntryQuestion(ctx, domain.QuestionTypeStart)
	}
	if err != nil {
		return nil, &domain.ConfigError{
			Detail: fmt.Sprintf("no entry question for channel %q", channel),
			Err:    err,
		}
	}
	return entry, nil
}

// MarkProcessing hands the survey to a reviewer.
func (e *Engine) MarkProcessing(s *domain.Survey) (*domain.Survey, error) {
	return e.transition(s, domain.ActionMarkProcessing, domain.StatusProcessing)
}

// Complete finishes review successfully.
func (e *Engine) Complete(s *domain.Survey) (*domain.Survey, error) {
	return e.transition(s, domain.ActionComplete, domain.StatusCompleted)
}

// Reject finishes review negatively.
func (e *Engine) Reject(s *domain.Survey) (*domain.Survey, error) {
	return e.transition(s, domain.ActionReject, domain.StatusRejected)
}

// transition applies one explicit lifecycle action, enforcing the status
// machine. The input survey is never mutated.
func (e *Engine) transition(s *domain.Survey, action domain.Action, to domain.Status) (*domain.Survey, error) {
	if !s.Status.Allows(action) {
		return nil, fmt.Errorf("%s from status %q: %w", action, s.Status, domain.ErrActionNotAllowed)
	}
	out := s.Clone()
	out.Status = to
	e.logger.Debug("survey status changed",
		"survey_id", out.ID,
		"action", action,
		"status", out.Status,
	)
	return out, nil
}
