package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
)

// Re-ask prefixes, prepended to the current question text when a step
// cannot be taken. The underlying survey is left untouched.
const (
	ReaskEmptyPrefix   = "No answer supplied. Answer again.\n"
	ReaskInvalidPrefix = "Invalid answer. Answer again.\n"
)

// Report is the presentation result of a step: what to show the user next.
// Transports (HTTP, MCP, CLI) render it; it carries no persistence duty.
type Report struct {
	// Prompt is the text to display: the current question, possibly
	// prefixed with a re-ask marker, or empty when the branch has ended.
	Prompt string `json:"prompt,omitempty"`

	// Choices lists the literal answers offered by the current question.
	Choices []string `json:"choices,omitempty"`

	// FreeText is true when a wildcard edge accepts free-form input.
	FreeText bool `json:"free_text,omitempty"`

	// Reasked is true when the step was refused and the same question must
	// be answered again.
	Reasked bool `json:"reasked,omitempty"`

	// Terminal is true when the survey has no current question.
	Terminal bool `json:"terminal,omitempty"`

	Status      domain.Status `json:"status"`
	StatusLabel string        `json:"status_label,omitempty"`
}

// Describe builds the report for the survey's current position without
// advancing it.
func (e *Engine) Describe(ctx context.Context, s *domain.Survey) (*Report, error) {
	return e.describe(ctx, s, "")
}

// describe assembles a report; reaskPrefix, when non-empty, marks the report
// as a re-ask of the current question.
func (e *Engine) describe(ctx context.Context, s *domain.Survey, reaskPrefix string) (*Report, error) {
	rep := &Report{
		Reasked:     reaskPrefix != "",
		Terminal:    s.Finished(),
		Status:      s.Status,
		StatusLabel: s.Status.Label(),
	}
	if s.Finished() {
		return rep, nil
	}

	current, err := e.graph.Question(ctx, s.CurrentQuestion)
	if err != nil {
		return nil, fmt.Errorf("load question %q: %w", s.CurrentQuestion, err)
	}
	rep.Prompt = reaskPrefix + current.Text

	edges, err := e.graph.EdgesFrom(ctx, current.ID)
	if err != nil && !errors.Is(err, domain.ErrChoiceNotFound) {
		return nil, fmt.Errorf("list choices of %q: %w", current.ID, err)
	}
	for _, edge := range edges {
		if edge.Wildcard() {
			rep.FreeText = true
			continue
		}
		rep.Choices = append(rep.Choices, *edge.Answer)
	}
	return rep, nil
}
