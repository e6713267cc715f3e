package engine

import (
	"context"
	"fmt"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/fingerprint"
)

// Revert moves the survey back to the question that was current immediately
// before the last recorded answer, using only the graph and the flat answer
// log. No history stack is persisted anywhere.
//
// The predecessor is reconstructed by scanning every edge that leads into
// the current position and keeping those whose source question text and
// answer match the last log pair. Exactly one survivor identifies the step
// to undo: the pair is truncated, the current question's version token is
// folded back out of the fingerprint (XOR self-inverse), and status returns
// to new. Zero or several survivors mean the junction is ambiguous; the
// survey is returned untouched and ok is false. Partial reverts never
// happen.
//
// An empty log is itself success: there is nothing to reverse, and the
// fingerprint and timestamp are reset from the question the survey still
// sits on. UpdatedAt is otherwise never lowered; it keeps the historical
// maximum even for questions no longer on the path.
func (e *Engine) Revert(ctx context.Context, s *domain.Survey) (*domain.Survey, bool, error) {
	lastQuestion, lastAnswer, ok := s.LastAnswer()
	if !ok {
		return e.revertEmpty(ctx, s)
	}

	candidates, err := e.graph.EdgesInto(ctx, s.CurrentQuestion)
	if err != nil {
		return nil, false, fmt.Errorf("scan edges into %q: %w", s.CurrentQuestion, err)
	}

	var winner *domain.AnswerChoice
	matches := 0
	for i := range candidates {
		c := candidates[i]
		from, err := e.graph.Question(ctx, c.From)
		if err != nil {
			return nil, false, fmt.Errorf("load candidate source %q: %w", c.From, err)
		}
		if from.Text != lastQuestion || !c.Matches(lastAnswer) {
			continue
		}
		matches++
		winner = &candidates[i]
	}

	if matches != 1 {
		e.logger.Debug("revert is ambiguous or unreconstructable",
			"survey_id", s.ID,
			"current", s.CurrentQuestion,
			"candidates", matches,
		)
		e.emitRevert(ctx, s, false)
		return s, false, nil
	}

	out := s.Clone()
	if !s.Finished() {
		current, err := e.graph.Question(ctx, s.CurrentQuestion)
		if err != nil {
			return nil, false, fmt.Errorf("load current question %q: %w", s.CurrentQuestion, err)
		}
		// Undo the fold that happened when this question was entered.
		// Terminal steps folded nothing, so there is nothing to remove.
		out.VersionFingerprint = fingerprint.Fold(out.VersionFingerprint, current.VersionToken)
	}
	out.CurrentQuestion = winner.From
	out.TruncateLastAnswer()
	out.Status = domain.StatusNew

	e.emitRevert(ctx, out, true)
	e.logger.Debug("survey reverted",
		"survey_id", out.ID,
		"to", out.CurrentQuestion,
	)
	return out, true, nil
}

// revertEmpty handles the nothing-to-undo case: success, with fingerprint
// and timestamp pinned back to the question the survey sits on.
func (e *Engine) revertEmpty(ctx context.Context, s *domain.Survey) (*domain.Survey, bool, error) {
	if s.Finished() {
		return s, true, nil
	}
	current, err := e.graph.Question(ctx, s.CurrentQuestion)
	if err != nil {
		return nil, false, fmt.Errorf("load current question %q: %w", s.CurrentQuestion, err)
	}
	out := s.Clone()
	out.Status = domain.StatusNew
	out.VersionFingerprint = current.VersionToken
	out.UpdatedAt = current.UpdatedAt
	e.emitRevert(ctx, out, true)
	return out, true, nil
}
