package ports

import (
	"context"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
)

// GraphReader is the engine's read-only view of the questionnaire graph.
// Implementations must be safe for concurrent reads; graph edits are
// serialized elsewhere.
//
// All lookups are keyed. The only scan is EdgesInto, which is bounded by the
// in-degree of one question.
type GraphReader interface {
	// Question returns the node by ID, or domain.ErrQuestionNotFound.
	Question(ctx context.Context, id string) (*domain.Question, error)

	// Edge returns the choice leaving fromID whose literal answer equals
	// answer exactly (case-sensitive), or domain.ErrChoiceNotFound.
	Edge(ctx context.Context, fromID, answer string) (*domain.AnswerChoice, error)

	// WildcardEdge returns the catch-all choice leaving fromID, or
	// domain.ErrChoiceNotFound.
	WildcardEdge(ctx context.Context, fromID string) (*domain.AnswerChoice, error)

	// EdgesFrom lists every choice leaving the question, for presentation.
	EdgesFrom(ctx context.Context, fromID string) ([]domain.AnswerChoice, error)

	// EdgesInto lists every choice leading to the question. An empty toID
	// selects terminal edges. Used by the revert candidate scan.
	EdgesInto(ctx context.Context, toID string) ([]domain.AnswerChoice, error)

	// EntryQuestion returns the single question flagged with the given
	// entry type tag, or domain.ErrNoEntryQuestion.
	EntryQuestion(ctx context.Context, typeTag string) (*domain.Question, error)

	// Questions lists all nodes, for introspection and validation.
	Questions(ctx context.Context) ([]domain.Question, error)
}
