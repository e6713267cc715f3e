// Package dsl builds questionnaire graphs in Go code, as an alternative to
// the YAML loader. Useful for tests, examples and embedded questionnaires.
package dsl

import (
	"github.com/IlyaEmelin/chatbot-promotion/pkg/adapters/memory"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
)

// Builder accumulates questions and edges until Build.
type Builder struct {
	order     []string
	questions map[string]*QuestionBuilder
}

// New creates an empty graph builder.
func New() *Builder {
	return &Builder{
		questions: make(map[string]*QuestionBuilder),
	}
}

// Add creates a question in the graph. Adding an existing ID returns the
// existing builder.
func (b *Builder) Add(id string) *QuestionBuilder {
	if qb, ok := b.questions[id]; ok {
		return qb
	}
	qb := &QuestionBuilder{
		question: domain.Question{ID: id},
	}
	b.order = append(b.order, id)
	b.questions[id] = qb
	return qb
}

// Build compiles the accumulated graph. Structural faults (dangling targets,
// duplicate answers, second wildcards) surface as *domain.ConfigError.
func (b *Builder) Build() (*memory.Graph, error) {
	g := memory.NewGraph()
	for _, id := range b.order {
		if err := g.AddQuestion(b.questions[id].question); err != nil {
			return nil, err
		}
	}
	for _, id := range b.order {
		for _, c := range b.questions[id].choices {
			if err := g.AddChoice(c); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// QuestionBuilder configures one question and its outgoing edges.
type QuestionBuilder struct {
	question domain.Question
	choices  []domain.AnswerChoice
}

// Text sets the question text.
func (q *QuestionBuilder) Text(text string) *QuestionBuilder {
	q.question.Text = text
	return q
}

// Entry tags the question as the entry point with the given type tag.
func (q *QuestionBuilder) Entry(typeTag string) *QuestionBuilder {
	q.question.Type = typeTag
	return q
}

// SaveTo projects the accepted answer into the named profile field, for
// example "User.phone_number".
func (q *QuestionBuilder) SaveTo(fieldRef string) *QuestionBuilder {
	q.question.ExternalFieldRef = fieldRef
	return q
}

// On adds an edge taken when the answer equals the literal exactly.
func (q *QuestionBuilder) On(answer, target string) *QuestionBuilder {
	q.choices = append(q.choices, domain.AnswerChoice{
		From:   q.question.ID,
		To:     target,
		Answer: &answer,
	})
	return q
}

// OnStatus is On with a status override applied when the edge is taken.
func (q *QuestionBuilder) OnStatus(answer, target string, status domain.Status) *QuestionBuilder {
	q.choices = append(q.choices, domain.AnswerChoice{
		From:      q.question.ID,
		To:        target,
		Answer:    &answer,
		NewStatus: status,
	})
	return q
}

// Free adds the wildcard edge, accepting any non-empty answer.
func (q *QuestionBuilder) Free(target string) *QuestionBuilder {
	q.choices = append(q.choices, domain.AnswerChoice{
		From: q.question.ID,
		To:   target,
	})
	return q
}

// End adds a terminal edge for the literal answer. An empty target ends the
// branch.
func (q *QuestionBuilder) End(answer string) *QuestionBuilder {
	return q.On(answer, "")
}

// EndStatus is End with a status override.
func (q *QuestionBuilder) EndStatus(answer string, status domain.Status) *QuestionBuilder {
	return q.OnStatus(answer, "", status)
}

// EndFree adds a terminal wildcard edge.
func (q *QuestionBuilder) EndFree() *QuestionBuilder {
	return q.Free("")
}
