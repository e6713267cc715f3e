// Package redis provides survey persistence and distributed locking on
// Redis, for deployments with more than one replica.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
)

// DefaultPrefix namespaces all survey keys.
const DefaultPrefix = "promo:survey:"

// indexKey is the sorted set of owner references, scored by last save time
// so expired entries can be swept lazily.
const indexKey = "index"

// Store implements ports.SurveyStore on Redis. Surveys are stored as JSON
// under prefix+ownerRef, with a sorted-set index for listing.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL expires surveys after the given idle time. Zero means no expiry.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// NewFromClient wraps an existing Redis client.
func NewFromClient(client *backend.Client, opts ...StoreOption) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(ownerRef string) string {
	return s.prefix + ownerRef
}

// Save implements ports.SurveyStore.
func (s *Store) Save(ctx context.Context, survey *domain.Survey) error {
	if survey.OwnerRef == "" {
		return fmt.Errorf("save survey %s: empty owner reference", survey.ID)
	}
	payload, err := json.Marshal(survey)
	if err != nil {
		return fmt.Errorf("marshal survey: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(survey.OwnerRef), payload, s.ttl)
	pipe.ZAdd(ctx, s.prefix+indexKey, backend.Z{
		Score:  float64(time.Now().Unix()),
		Member: survey.OwnerRef,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

// Load implements ports.SurveyStore.
func (s *Store) Load(ctx context.Context, ownerRef string) (*domain.Survey, error) {
	payload, err := s.client.Get(ctx, s.key(ownerRef)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("owner %q: %w", ownerRef, domain.ErrSurveyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis load: %w", err)
	}

	var survey domain.Survey
	if err := json.Unmarshal(payload, &survey); err != nil {
		return nil, fmt.Errorf("unmarshal survey: %w", err)
	}
	return &survey, nil
}

// Delete implements ports.SurveyStore.
func (s *Store) Delete(ctx context.Context, ownerRef string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(ownerRef))
	pipe.ZRem(ctx, s.prefix+indexKey, ownerRef)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// List implements ports.SurveyStore. With a TTL configured, index entries
// older than the TTL are swept first so expired surveys stop showing up.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if s.ttl > 0 {
		cutoff := time.Now().Add(-s.ttl).Unix()
		if err := s.client.ZRemRangeByScore(ctx, s.prefix+indexKey,
			"-inf", fmt.Sprintf("%d", cutoff)).Err(); err != nil {
			return nil, fmt.Errorf("redis sweep index: %w", err)
		}
	}
	owners, err := s.client.ZRange(ctx, s.prefix+indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	return owners, nil
}
