package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/adapters/memory"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/engine"
)

func TestRevert_UndoesLastStep(t *testing.T) {
	ctx := context.Background()
	g := promoGraph(t)
	e := engine.New(g)
	s := startSurvey(t, e)

	mid, _, err := e.Advance(ctx, s, "yes")
	require.NoError(t, err)

	out, ok, err := e.Revert(ctx, mid)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "a", out.CurrentQuestion)
	assert.Empty(t, out.AnswerLog)
	assert.Equal(t, domain.StatusNew, out.Status)
	assert.Equal(t, s.VersionFingerprint, out.VersionFingerprint,
		"folding the token out restores the pre-step fingerprint")

	// Input untouched.
	assert.Equal(t, "b", mid.CurrentQuestion)
}

func TestRevert_RoundTripFingerprint(t *testing.T) {
	ctx := context.Background()
	e := engine.New(promoGraph(t))
	s := startSurvey(t, e)

	one, _, err := e.Advance(ctx, s, "anything at all")
	require.NoError(t, err)

	back, ok, err := e.Revert(ctx, one)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s.VersionFingerprint, back.VersionFingerprint)
	assert.Equal(t, s.CurrentQuestion, back.CurrentQuestion)
	assert.Equal(t, s.AnswerLog, back.AnswerLog)
}

func TestRevert_UpdatedAtKeepsMaximum(t *testing.T) {
	ctx := context.Background()
	g := promoGraph(t)
	e := engine.New(g)
	s := startSurvey(t, e)

	// Editing b pushes its timestamp past a's.
	require.NoError(t, g.UpdateQuestionText("b", "Which promo?"))

	mid, _, err := e.Advance(ctx, s, "yes")
	require.NoError(t, err)

	out, ok, err := e.Revert(ctx, mid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mid.UpdatedAt, out.UpdatedAt, "revert never lowers the timestamp")
}

func TestRevert_FinishedSurvey(t *testing.T) {
	ctx := context.Background()
	e := engine.New(promoGraph(t))
	s := startSurvey(t, e)

	mid, _, err := e.Advance(ctx, s, "yes")
	require.NoError(t, err)
	done, _, err := e.Advance(ctx, mid, "go")
	require.NoError(t, err)
	require.True(t, done.Finished())

	out, ok, err := e.Revert(ctx, done)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "b", out.CurrentQuestion)
	assert.Equal(t, domain.StatusNew, out.Status)
	assert.Equal(t, []string{"Want a promo?", "yes"}, out.AnswerLog)
	assert.Equal(t, done.VersionFingerprint, out.VersionFingerprint,
		"the terminal step folded nothing, so nothing is removed")
}

func TestRevert_AmbiguousJunction(t *testing.T) {
	ctx := context.Background()
	g := memory.NewGraph()
	require.NoError(t, g.AddQuestion(domain.Question{ID: "left", Text: "Pick a door", Type: domain.QuestionTypeStart}))
	require.NoError(t, g.AddQuestion(domain.Question{ID: "right", Text: "Pick a door"}))
	require.NoError(t, g.AddQuestion(domain.Question{ID: "join", Text: "You are through"}))
	require.NoError(t, g.AddChoice(domain.AnswerChoice{From: "left", To: "join", Answer: strptr("red")}))
	require.NoError(t, g.AddChoice(domain.AnswerChoice{From: "right", To: "join", Answer: strptr("red")}))

	e := engine.New(g)
	s := startSurvey(t, e)

	mid, _, err := e.Advance(ctx, s, "red")
	require.NoError(t, err)
	require.Equal(t, "join", mid.CurrentQuestion)

	// Two sources share the text and the answer: unreconstructable.
	out, ok, err := e.Revert(ctx, mid)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Same(t, mid, out, "ambiguity must leave the survey untouched")
	assert.Equal(t, []string{"Pick a door", "red"}, out.AnswerLog)
}

func TestRevert_WildcardVersusLiteral(t *testing.T) {
	ctx := context.Background()
	g := memory.NewGraph()
	require.NoError(t, g.AddQuestion(domain.Question{ID: "q", Text: "Say something", Type: domain.QuestionTypeStart}))
	require.NoError(t, g.AddQuestion(domain.Question{ID: "next", Text: "Noted"}))
	require.NoError(t, g.AddChoice(domain.AnswerChoice{From: "q", To: "next", Answer: strptr("hello")}))
	require.NoError(t, g.AddChoice(domain.AnswerChoice{From: "q", To: "next"}))

	e := engine.New(g)
	s := startSurvey(t, e)

	mid, _, err := e.Advance(ctx, s, "hello")
	require.NoError(t, err)

	// Both the literal and the wildcard from the same question accept
	// "hello", so the step back is ambiguous.
	_, ok, err := e.Revert(ctx, mid)
	require.NoError(t, err)
	assert.False(t, ok)

	// A free-text answer only the wildcard accepts reverts fine.
	mid2, _, err := e.Advance(ctx, s, "something else")
	require.NoError(t, err)
	back, ok, err := e.Revert(ctx, mid2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "q", back.CurrentQuestion)
}

func TestRevert_EmptyLog(t *testing.T) {
	ctx := context.Background()
	g := promoGraph(t)
	e := engine.New(g)
	s := startSurvey(t, e)

	// Nothing to undo, but status and fingerprint are pinned back to the
	// question the survey sits on.
	s.Status = domain.StatusRejected
	out, ok, err := e.Revert(ctx, s)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.StatusNew, out.Status)

	a := mustQuestion(t, g, "a")
	assert.Equal(t, a.VersionToken, out.VersionFingerprint)
	assert.Equal(t, a.UpdatedAt, out.UpdatedAt)
}

func TestRevert_EmptyLogFinished(t *testing.T) {
	ctx := context.Background()
	e := engine.New(promoGraph(t))

	s := &domain.Survey{OwnerRef: "owner-1", Status: domain.StatusCompleted}
	out, ok, err := e.Revert(ctx, s)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, s, out)
}

func TestRevert_EmitsHook(t *testing.T) {
	ctx := context.Background()
	var events []bool
	e := engine.New(promoGraph(t), engine.WithLifecycleHooks(domain.LifecycleHooks{
		OnRevert: func(_ context.Context, ev *domain.RevertEvent) { events = append(events, ev.OK) },
	}))
	s := startSurvey(t, e)

	mid, _, err := e.Advance(ctx, s, "yes")
	require.NoError(t, err)
	_, ok, err := e.Revert(ctx, mid)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []bool{true}, events)
}
