// Package memory provides in-process adapters: the questionnaire graph,
// a survey store and a profile writer, all backed by plain maps. They are
// the default wiring for tests, the CLI and single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
)

// Graph is a mutable in-memory questionnaire graph. Reads are safe for
// concurrent use; mutations take the write lock and are expected at startup
// and from graph-editing tooling only.
type Graph struct {
	mu        sync.RWMutex
	questions map[string]domain.Question

	// out and in index edges by source and target question. Terminal edges
	// live under the empty key in `in`.
	out map[string][]domain.AnswerChoice
	in  map[string][]domain.AnswerChoice
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		questions: map[string]domain.Question{},
		out:       map[string][]domain.AnswerChoice{},
		in:        map[string][]domain.AnswerChoice{},
	}
}

// AddQuestion inserts a node. A question arriving without a version token is
// stamped as freshly edited.
func (g *Graph) AddQuestion(q domain.Question) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if q.ID == "" {
		return &domain.ConfigError{Detail: "question with empty ID"}
	}
	if _, exists := g.questions[q.ID]; exists {
		return &domain.ConfigError{Detail: fmt.Sprintf("duplicate question %q", q.ID)}
	}
	if q.VersionToken == uuid.Nil {
		q.Touch()
	}
	if q.Type == "" {
		q.Type = domain.QuestionTypeStandard
	}
	g.questions[q.ID] = q
	return nil
}

// UpdateQuestionText edits a question's text, stamping a fresh version token
// and timestamp. Surveys already past the question keep the old token in
// their fingerprint, which is exactly how staleness is detected.
func (g *Graph) UpdateQuestionText(id, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	q, ok := g.questions[id]
	if !ok {
		return fmt.Errorf("update %q: %w", id, domain.ErrQuestionNotFound)
	}
	q.Text = text
	q.Touch()
	g.questions[id] = q
	return nil
}

// AddChoice inserts an edge. Both endpoints must exist (an empty To is the
// terminal marker), and per source question literal answers must be unique
// and at most one wildcard is allowed.
func (g *Graph) AddChoice(c domain.AnswerChoice) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.questions[c.From]; !ok {
		return &domain.ConfigError{Detail: fmt.Sprintf("choice from unknown question %q", c.From)}
	}
	if c.To != "" {
		if _, ok := g.questions[c.To]; !ok {
			return &domain.ConfigError{Detail: fmt.Sprintf("choice into unknown question %q", c.To)}
		}
	}
	for _, existing := range g.out[c.From] {
		if existing.Wildcard() && c.Wildcard() {
			return &domain.ConfigError{Detail: fmt.Sprintf("question %q: second wildcard choice", c.From)}
		}
		if !existing.Wildcard() && !c.Wildcard() && *existing.Answer == *c.Answer {
			return &domain.ConfigError{Detail: fmt.Sprintf("question %q: duplicate answer %q", c.From, *c.Answer)}
		}
	}

	g.out[c.From] = append(g.out[c.From], c)
	g.in[c.To] = append(g.in[c.To], c)
	return nil
}

// Question implements ports.GraphReader.
func (g *Graph) Question(_ context.Context, id string) (*domain.Question, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	q, ok := g.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %q: %w", id, domain.ErrQuestionNotFound)
	}
	return &q, nil
}

// Edge implements ports.GraphReader.
func (g *Graph) Edge(_ context.Context, fromID, answer string) (*domain.AnswerChoice, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, c := range g.out[fromID] {
		if !c.Wildcard() && *c.Answer == answer {
			edge := c
			return &edge, nil
		}
	}
	return nil, fmt.Errorf("question %q answer %q: %w", fromID, answer, domain.ErrChoiceNotFound)
}

// WildcardEdge implements ports.GraphReader.
func (g *Graph) WildcardEdge(_ context.Context, fromID string) (*domain.AnswerChoice, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, c := range g.out[fromID] {
		if c.Wildcard() {
			edge := c
			return &edge, nil
		}
	}
	return nil, fmt.Errorf("question %q wildcard: %w", fromID, domain.ErrChoiceNotFound)
}

// EdgesFrom implements ports.GraphReader.
func (g *Graph) EdgesFrom(_ context.Context, fromID string) ([]domain.AnswerChoice, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]domain.AnswerChoice(nil), g.out[fromID]...), nil
}

// EdgesInto implements ports.GraphReader. An empty toID selects terminal
// edges.
func (g *Graph) EdgesInto(_ context.Context, toID string) ([]domain.AnswerChoice, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]domain.AnswerChoice(nil), g.in[toID]...), nil
}

// EntryQuestion implements ports.GraphReader. When several questions carry
// the tag (a fault the validator reports), the lowest ID wins so lookups
// stay deterministic.
func (g *Graph) EntryQuestion(_ context.Context, typeTag string) (*domain.Question, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var entry *domain.Question
	for _, q := range g.questions {
		if q.Type != typeTag {
			continue
		}
		if entry == nil || q.ID < entry.ID {
			q := q
			entry = &q
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("type %q: %w", typeTag, domain.ErrNoEntryQuestion)
	}
	return entry, nil
}

// Questions implements ports.GraphReader.
func (g *Graph) Questions(_ context.Context) ([]domain.Question, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	all := make([]domain.Question, 0, len(g.questions))
	for _, q := range g.questions {
		all = append(all, q)
	}
	return all, nil
}
