package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
)

// Store is an in-memory survey store. Surveys are cloned on the way in and
// out so callers never share state with the map.
type Store struct {
	mu      sync.RWMutex
	surveys map[string]*domain.Survey
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{surveys: map[string]*domain.Survey{}}
}

// Save implements ports.SurveyStore.
func (s *Store) Save(_ context.Context, survey *domain.Survey) error {
	if survey.OwnerRef == "" {
		return fmt.Errorf("save survey %s: empty owner reference", survey.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surveys[survey.OwnerRef] = survey.Clone()
	return nil
}

// Load implements ports.SurveyStore.
func (s *Store) Load(_ context.Context, ownerRef string) (*domain.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	survey, ok := s.surveys[ownerRef]
	if !ok {
		return nil, fmt.Errorf("owner %q: %w", ownerRef, domain.ErrSurveyNotFound)
	}
	return survey.Clone(), nil
}

// Delete implements ports.SurveyStore. Deleting a missing survey is not an
// error.
func (s *Store) Delete(_ context.Context, ownerRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.surveys, ownerRef)
	return nil
}

// List implements ports.SurveyStore. Owners are returned sorted for stable
// output.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]string, 0, len(s.surveys))
	for owner := range s.surveys {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}
