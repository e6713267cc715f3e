package ports

import (
	"context"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
)

// SurveyStore persists survey aggregates keyed by owner reference, one
// survey per owner per questionnaire.
type SurveyStore interface {
	// Save persists the survey under its OwnerRef.
	Save(ctx context.Context, survey *domain.Survey) error

	// Load retrieves the owner's survey.
	// Returns domain.ErrSurveyNotFound if none exists.
	Load(ctx context.Context, ownerRef string) (*domain.Survey, error)

	// Delete removes the owner's survey.
	Delete(ctx context.Context, ownerRef string) error

	// List returns the owner references with a stored survey.
	List(ctx context.Context) ([]string, error)
}
