package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/adapters/memory"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/engine"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/ports"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/session"
)

func strptr(s string) *string { return &s }

func newManager(t *testing.T, opts ...session.Option) (*session.Manager, *memory.Store) {
	t.Helper()
	g := memory.NewGraph()
	require.NoError(t, g.AddQuestion(domain.Question{ID: "a", Text: "Want a promo?", Type: domain.QuestionTypeStart}))
	require.NoError(t, g.AddQuestion(domain.Question{ID: "b", Text: "Which one?"}))
	require.NoError(t, g.AddChoice(domain.AnswerChoice{From: "a", To: "b", Answer: strptr("yes")}))
	require.NoError(t, g.AddChoice(domain.AnswerChoice{From: "b", Answer: strptr("go")}))

	store := memory.NewStore()
	return session.NewManager(engine.New(g), store, opts...), store
}

func TestManager_StartPersists(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	s, rep, err := m.Start(ctx, "owner-1", domain.ChannelWeb, false)
	require.NoError(t, err)
	assert.Equal(t, "a", s.CurrentQuestion)
	assert.Equal(t, "Want a promo?", rep.Prompt)

	stored, err := store.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, s.ID, stored.ID)

	// A second start resumes without creating.
	again, _, err := m.Start(ctx, "owner-1", domain.ChannelWeb, false)
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID)
}

func TestManager_AdvancePersists(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	_, _, err := m.Start(ctx, "owner-1", domain.ChannelWeb, false)
	require.NoError(t, err)

	s, rep, err := m.Advance(ctx, "owner-1", "yes")
	require.NoError(t, err)
	assert.Equal(t, "b", s.CurrentQuestion)
	assert.Equal(t, "Which one?", rep.Prompt)

	stored, err := store.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "b", stored.CurrentQuestion)
}

func TestManager_ReaskDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	started, _, err := m.Start(ctx, "owner-1", domain.ChannelWeb, false)
	require.NoError(t, err)

	_, rep, err := m.Advance(ctx, "owner-1", "")
	require.NoError(t, err)
	assert.True(t, rep.Reasked)

	stored, err := store.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, started.VersionFingerprint, stored.VersionFingerprint)
	assert.Empty(t, stored.AnswerLog)
}

func TestManager_RevertPersists(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	_, _, err := m.Start(ctx, "owner-1", domain.ChannelWeb, false)
	require.NoError(t, err)
	_, _, err = m.Advance(ctx, "owner-1", "yes")
	require.NoError(t, err)

	s, ok, err := m.Revert(ctx, "owner-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", s.CurrentQuestion)

	stored, err := store.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "a", stored.CurrentQuestion)
}

func TestManager_UnknownOwner(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	_, _, err := m.Advance(ctx, "nobody", "yes")
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
	_, _, err = m.Get(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
}

func TestManager_ReviewFlow(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	_, _, err := m.Start(ctx, "owner-1", domain.ChannelWeb, false)
	require.NoError(t, err)
	_, _, err = m.Advance(ctx, "owner-1", "yes")
	require.NoError(t, err)
	s, _, err := m.Advance(ctx, "owner-1", "go")
	require.NoError(t, err)
	require.Equal(t, domain.StatusWaitingDocs, s.Status)

	s, err = m.MarkProcessing(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, s.Status)

	s, err = m.Complete(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, s.Status)

	_, err = m.Reject(ctx, "owner-1")
	assert.ErrorIs(t, err, domain.ErrActionNotAllowed)
}

func TestManager_ConcurrentAdvances(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	_, _, err := m.Start(ctx, "owner-1", domain.ChannelWeb, false)
	require.NoError(t, err)

	// Only one of the racing answers can land on question a; the rest hit
	// b and re-ask. The log must hold exactly one accepted pair.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = m.Advance(ctx, "owner-1", "yes")
		}()
	}
	wg.Wait()

	stored, err := store.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "b", stored.CurrentQuestion)
	assert.Len(t, stored.AnswerLog, 2)
}

type trackingLocker struct {
	mu     sync.Mutex
	locked []string
}

func (l *trackingLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return func(context.Context) error { return nil }, nil
}

func TestManager_UsesDistributedLocker(t *testing.T) {
	ctx := context.Background()
	locker := &trackingLocker{}
	m, _ := newManager(t, session.WithLocker(locker))

	_, _, err := m.Start(ctx, "owner-1", domain.ChannelWeb, false)
	require.NoError(t, err)
	_, _, err = m.Advance(ctx, "owner-1", "yes")
	require.NoError(t, err)

	assert.Equal(t, []string{"owner-1", "owner-1"}, locker.locked)
}

func TestManager_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	for i := 0; i < 3; i++ {
		owner := fmt.Sprintf("owner-%d", i)
		_, _, err := m.Start(ctx, owner, domain.ChannelWeb, false)
		require.NoError(t, err)
	}

	owners, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, owners, 3)

	require.NoError(t, m.Delete(ctx, "owner-1"))
	owners, err = m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner-0", "owner-2"}, owners)
}
