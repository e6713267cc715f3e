// Package session serializes survey access and ties the stateless engine to
// a store. All writes for one owner happen under that owner's lock, in
// process and, when a distributed locker is configured, across replicas.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IlyaEmelin/chatbot-promotion/internal/logging"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/engine"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed
// holder.
const DefaultLockTTL = 10 * time.Second

// lockEntry is a refcounted per-owner mutex. Entries are dropped from the
// map once the last holder releases, so the map stays proportional to the
// number of owners currently in flight.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates survey operations: lock, load, run the engine, save.
type Manager struct {
	engine *engine.Engine
	store  ports.SurveyStore
	locker ports.DistributedLocker
	ttl    time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*lockEntry
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker adds a distributed lock taken around every write, for
// multi-replica deployments.
func WithLocker(l ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = l
	}
}

// WithLockTTL overrides the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager wires the engine to a survey store.
func NewManager(e *engine.Engine, store ports.SurveyStore, opts ...Option) *Manager {
	m := &Manager{
		engine: e,
		store:  store,
		ttl:    DefaultLockTTL,
		logger: logging.NewNop(),
		locks:  map[string]*lockEntry{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// withLock runs fn holding the owner's in-process lock and, if configured,
// the distributed lock.
func (m *Manager) withLock(ctx context.Context, ownerRef string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	entry, ok := m.locks[ownerRef]
	if !ok {
		entry = &lockEntry{}
		m.locks[ownerRef] = entry
	}
	entry.refs++
	m.mu.Unlock()

	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(m.locks, ownerRef)
		}
		m.mu.Unlock()
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, ownerRef, m.ttl)
		if err != nil {
			return fmt.Errorf("acquire lock for %q: %w", ownerRef, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("release lock failed", "owner_ref", ownerRef, "error", err)
			}
		}()
	}

	return fn(ctx)
}

// Start returns the owner's survey, creating or restarting one as the
// engine decides, and persists it when new.
func (m *Manager) Start(ctx context.Context, ownerRef, channel string, restart bool) (*domain.Survey, *engine.Report, error) {
	var (
		survey *domain.Survey
		report *engine.Report
	)
	err := m.withLock(ctx, ownerRef, func(ctx context.Context) error {
		existing, err := m.store.Load(ctx, ownerRef)
		if err != nil && !errors.Is(err, domain.ErrSurveyNotFound) {
			return fmt.Errorf("load survey: %w", err)
		}

		out, created, err := m.engine.Start(ctx, existing, ownerRef, channel, restart)
		if err != nil {
			return err
		}
		if created {
			if err := m.store.Save(ctx, out); err != nil {
				return fmt.Errorf("save survey: %w", err)
			}
		}
		survey = out
		report, err = m.engine.Describe(ctx, out)
		return err
	})
	return survey, report, err
}

// Advance applies one answer to the owner's survey.
func (m *Manager) Advance(ctx context.Context, ownerRef, answer string) (*domain.Survey, *engine.Report, error) {
	var (
		survey *domain.Survey
		report *engine.Report
	)
	err := m.withLock(ctx, ownerRef, func(ctx context.Context) error {
		s, err := m.store.Load(ctx, ownerRef)
		if err != nil {
			return err
		}
		out, rep, err := m.engine.Advance(ctx, s, answer)
		if err != nil {
			return err
		}
		if out != s {
			if err := m.store.Save(ctx, out); err != nil {
				return fmt.Errorf("save survey: %w", err)
			}
		}
		survey, report = out, rep
		return nil
	})
	return survey, report, err
}

// Revert undoes the owner's last answered step. ok is false when the step
// back is ambiguous and nothing changed.
func (m *Manager) Revert(ctx context.Context, ownerRef string) (*domain.Survey, bool, error) {
	var (
		survey *domain.Survey
		ok     bool
	)
	err := m.withLock(ctx, ownerRef, func(ctx context.Context) error {
		s, err := m.store.Load(ctx, ownerRef)
		if err != nil {
			return err
		}
		out, reverted, err := m.engine.Revert(ctx, s)
		if err != nil {
			return err
		}
		if reverted && out != s {
			if err := m.store.Save(ctx, out); err != nil {
				return fmt.Errorf("save survey: %w", err)
			}
		}
		survey, ok = out, reverted
		return nil
	})
	return survey, ok, err
}

// MarkProcessing hands the owner's survey to a reviewer.
func (m *Manager) MarkProcessing(ctx context.Context, ownerRef string) (*domain.Survey, error) {
	return m.applyTransition(ctx, ownerRef, func(s *domain.Survey) (*domain.Survey, error) {
		return m.engine.MarkProcessing(s)
	})
}

// Complete finishes review successfully.
func (m *Manager) Complete(ctx context.Context, ownerRef string) (*domain.Survey, error) {
	return m.applyTransition(ctx, ownerRef, func(s *domain.Survey) (*domain.Survey, error) {
		return m.engine.Complete(s)
	})
}

// Reject finishes review negatively.
func (m *Manager) Reject(ctx context.Context, ownerRef string) (*domain.Survey, error) {
	return m.applyTransition(ctx, ownerRef, func(s *domain.Survey) (*domain.Survey, error) {
		return m.engine.Reject(s)
	})
}

func (m *Manager) applyTransition(ctx context.Context, ownerRef string, apply func(*domain.Survey) (*domain.Survey, error)) (*domain.Survey, error) {
	var survey *domain.Survey
	err := m.withLock(ctx, ownerRef, func(ctx context.Context) error {
		s, err := m.store.Load(ctx, ownerRef)
		if err != nil {
			return err
		}
		out, err := apply(s)
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, out); err != nil {
			return fmt.Errorf("save survey: %w", err)
		}
		survey = out
		return nil
	})
	return survey, err
}

// Get loads the owner's survey and its presentation report without holding
// any lock.
func (m *Manager) Get(ctx context.Context, ownerRef string) (*domain.Survey, *engine.Report, error) {
	s, err := m.store.Load(ctx, ownerRef)
	if err != nil {
		return nil, nil, err
	}
	rep, err := m.engine.Describe(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	return s, rep, nil
}

// Delete removes the owner's survey.
func (m *Manager) Delete(ctx context.Context, ownerRef string) error {
	return m.withLock(ctx, ownerRef, func(ctx context.Context) error {
		return m.store.Delete(ctx, ownerRef)
	})
}

// List returns the owner references with a stored survey.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}
