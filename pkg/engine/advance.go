package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/fingerprint"
)

// Advance applies one answer to the survey and computes the next question,
// the text to show, and the resulting status.
//
// Priority order, first match wins:
//
//  1. empty answer: no mutation, re-ask with ReaskEmptyPrefix;
//  2. edge whose literal answer equals rawAnswer exactly;
//  3. the wildcard edge, accepting the free-text answer verbatim;
//  4. neither: no mutation, re-ask with ReaskInvalidPrefix.
//
// On a match the engine appends one (question, answer) pair to the log,
// projects the answer into the external profile if the question asks for
// it, moves to the edge's target, folds the target's version token into the
// fingerprint and max-folds its timestamp.
//
// A *domain.ValidationError from the projector blocks the step: the
// returned survey is the input, unchanged. Advancing a finished survey is a
// no-op. The input survey is never mutated; a new value is returned when
// the step commits.
func (e *Engine) Advance(ctx context.Context, s *domain.Survey, rawAnswer string) (*domain.Survey, *Report, error) {
	if s.Finished() {
		rep, err := e.Describe(ctx, s)
		return s, rep, err
	}

	current, err := e.graph.Question(ctx, s.CurrentQuestion)
	if err != nil {
		return nil, nil, fmt.Errorf("load current question %q: %w", s.CurrentQuestion, err)
	}

	if rawAnswer == "" {
		e.emitReask(ctx, s)
		rep, err := e.describe(ctx, s, ReaskEmptyPrefix)
		return s, rep, err
	}

	edge, err := e.matchEdge(ctx, current.ID, rawAnswer)
	if errors.Is(err, domain.ErrChoiceNotFound) {
		e.logger.Debug("no matching answer choice", "question", current.ID)
		e.emitReask(ctx, s)
		rep, err := e.describe(ctx, s, ReaskInvalidPrefix)
		return s, rep, err
	}
	if err != nil {
		return nil, nil, fmt.Errorf("match answer for %q: %w", current.ID, err)
	}

	// Project before committing anything: a validation failure must leave
	// the survey byte-for-byte unchanged.
	if current.ExternalFieldRef != "" && e.projector != nil {
		if err := e.projector.Project(ctx, s.OwnerRef, current.ExternalFieldRef, rawAnswer); err != nil {
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) {
				e.emitProjection(ctx, s, current.ExternalFieldRef, true)
				return s, nil, err
			}
			return nil, nil, fmt.Errorf("project %q: %w", current.ExternalFieldRef, err)
		}
		e.emitProjection(ctx, s, current.ExternalFieldRef, false)
	}

	var next *domain.Question
	if !edge.Terminal() {
		next, err = e.graph.Question(ctx, edge.To)
		if err != nil {
			return nil, nil, fmt.Errorf("load next question %q: %w", edge.To, err)
		}
	}

	out := s.Clone()
	out.AppendAnswer(current.Text, rawAnswer)

	if next != nil {
		out.CurrentQuestion = next.ID
		out.VersionFingerprint = fingerprint.Fold(out.VersionFingerprint, next.VersionToken)
		out.UpdatedAt = fingerprint.Later(out.UpdatedAt, next.UpdatedAt)
	} else {
		out.CurrentQuestion = ""
	}

	switch {
	case edge.NewStatus != "":
		out.Status = edge.NewStatus
	case next == nil:
		out.Status = domain.StatusWaitingDocs
	default:
		out.Status = domain.StatusNew
	}

	e.emitLeave(ctx, out, current.ID)
	if next != nil {
		e.emitEnter(ctx, out, next.ID)
	}
	e.logger.Debug("survey advanced",
		"survey_id", out.ID,
		"from", current.ID,
		"to", out.CurrentQuestion,
		"status", out.Status,
	)

	rep, err := e.Describe(ctx, out)
	if err != nil {
		return nil, nil, err
	}
	return out, rep, nil
}

// matchEdge resolves the edge for an answer: exact literal first, wildcard
// second.
func (e *Engine) matchEdge(ctx context.Context, fromID, answer string) (*domain.AnswerChoice, error) {
	edge, err := e.graph.Edge(ctx, fromID, answer)
	if errors.Is(err, domain.ErrChoiceNotFound) {
		return e.graph.WildcardEdge(ctx, fromID)
	}
	return edge, err
}
