package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/adapters/memory"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/engine"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/fingerprint"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/profile"
)

func strptr(s string) *string { return &s }

// promoGraph builds the reference questionnaire used across the engine
// tests:
//
//	a "Want a promo?"  --yes-->       b "Which one?"
//	a                  --(wildcard)-> c "Why not?"
//	b                  --go-->        end, status rejected
//	c                  --done-->      end
//	p "Your phone?"    --(wildcard)-> b, projects User.phone_number
func promoGraph(t *testing.T) *memory.Graph {
	t.Helper()
	g := memory.NewGraph()
	require.NoError(t, g.AddQuestion(domain.Question{ID: "a", Text: "Want a promo?", Type: domain.QuestionTypeStart}))
	require.NoError(t, g.AddQuestion(domain.Question{ID: "b", Text: "Which one?"}))
	require.NoError(t, g.AddQuestion(domain.Question{ID: "c", Text: "Why not?"}))
	require.NoError(t, g.AddQuestion(domain.Question{ID: "p", Text: "Your phone?", ExternalFieldRef: "User.phone_number"}))
	require.NoError(t, g.AddChoice(domain.AnswerChoice{From: "a", To: "b", Answer: strptr("yes")}))
	require.NoError(t, g.AddChoice(domain.AnswerChoice{From: "a", To: "c"}))
	require.NoError(t, g.AddChoice(domain.AnswerChoice{From: "b", Answer: strptr("go"), NewStatus: domain.StatusRejected}))
	require.NoError(t, g.AddChoice(domain.AnswerChoice{From: "c", Answer: strptr("done")}))
	require.NoError(t, g.AddChoice(domain.AnswerChoice{From: "p", To: "b"}))
	return g
}

func mustQuestion(t *testing.T, g *memory.Graph, id string) *domain.Question {
	t.Helper()
	q, err := g.Question(context.Background(), id)
	require.NoError(t, err)
	return q
}

func startSurvey(t *testing.T, e *engine.Engine) *domain.Survey {
	t.Helper()
	s, created, err := e.Start(context.Background(), nil, "owner-1", domain.ChannelWeb, false)
	require.NoError(t, err)
	require.True(t, created)
	return s
}

func TestAdvance_LiteralEdge(t *testing.T) {
	ctx := context.Background()
	g := promoGraph(t)
	e := engine.New(g)
	s := startSurvey(t, e)

	out, rep, err := e.Advance(ctx, s, "yes")
	require.NoError(t, err)

	assert.Equal(t, "b", out.CurrentQuestion)
	assert.Equal(t, domain.StatusNew, out.Status)
	assert.Equal(t, []string{"Want a promo?", "yes"}, out.AnswerLog)

	a, b := mustQuestion(t, g, "a"), mustQuestion(t, g, "b")
	assert.Equal(t, fingerprint.Fold(a.VersionToken, b.VersionToken), out.VersionFingerprint)
	assert.Equal(t, fingerprint.Later(a.UpdatedAt, b.UpdatedAt), out.UpdatedAt)

	assert.Equal(t, "Which one?", rep.Prompt)
	assert.Equal(t, []string{"go"}, rep.Choices)
	assert.False(t, rep.FreeText)

	// Input untouched.
	assert.Equal(t, "a", s.CurrentQuestion)
	assert.Empty(t, s.AnswerLog)
}

func TestAdvance_WildcardEdge(t *testing.T) {
	ctx := context.Background()
	g := promoGraph(t)
	e := engine.New(g)
	s := startSurvey(t, e)

	out, rep, err := e.Advance(ctx, s, "not sure honestly")
	require.NoError(t, err)

	assert.Equal(t, "c", out.CurrentQuestion)
	assert.Equal(t, []string{"Want a promo?", "not sure honestly"}, out.AnswerLog)
	assert.Equal(t, "Why not?", rep.Prompt)
}

func TestAdvance_LiteralBeatsWildcard(t *testing.T) {
	ctx := context.Background()
	e := engine.New(promoGraph(t))
	s := startSurvey(t, e)

	// "yes" has a literal edge even though a wildcard exists.
	out, _, err := e.Advance(ctx, s, "yes")
	require.NoError(t, err)
	assert.Equal(t, "b", out.CurrentQuestion)
}

func TestAdvance_EmptyAnswerReasks(t *testing.T) {
	ctx := context.Background()
	e := engine.New(promoGraph(t))
	s := startSurvey(t, e)

	out, rep, err := e.Advance(ctx, s, "")
	require.NoError(t, err)

	assert.Same(t, s, out, "re-ask must not touch the survey")
	assert.True(t, rep.Reasked)
	assert.Equal(t, engine.ReaskEmptyPrefix+"Want a promo?", rep.Prompt)
}

func TestAdvance_InvalidAnswerReasks(t *testing.T) {
	ctx := context.Background()
	e := engine.New(promoGraph(t))
	s := startSurvey(t, e)

	// Question b has no wildcard, so an unknown answer re-asks.
	mid, _, err := e.Advance(ctx, s, "yes")
	require.NoError(t, err)

	out, rep, err := e.Advance(ctx, mid, "nah")
	require.NoError(t, err)

	assert.Same(t, mid, out)
	assert.True(t, rep.Reasked)
	assert.Equal(t, engine.ReaskInvalidPrefix+"Which one?", rep.Prompt)
	assert.Equal(t, []string{"Want a promo?", "yes"}, out.AnswerLog)
}

func TestAdvance_TerminalEdge(t *testing.T) {
	ctx := context.Background()
	e := engine.New(promoGraph(t))
	s := startSurvey(t, e)

	mid, _, err := e.Advance(ctx, s, "yes")
	require.NoError(t, err)

	out, rep, err := e.Advance(ctx, mid, "go")
	require.NoError(t, err)

	assert.True(t, out.Finished())
	assert.Equal(t, domain.StatusRejected, out.Status, "edge status override wins")
	assert.True(t, rep.Terminal)
	assert.Empty(t, rep.Prompt)

	// No next question was entered, so nothing folded.
	assert.Equal(t, mid.VersionFingerprint, out.VersionFingerprint)
}

func TestAdvance_TerminalEdgeDefaultsToWaitingDocs(t *testing.T) {
	ctx := context.Background()
	e := engine.New(promoGraph(t))
	s := startSurvey(t, e)

	mid, _, err := e.Advance(ctx, s, "anything")
	require.NoError(t, err)
	require.Equal(t, "c", mid.CurrentQuestion)

	out, _, err := e.Advance(ctx, mid, "done")
	require.NoError(t, err)

	assert.True(t, out.Finished())
	assert.Equal(t, domain.StatusWaitingDocs, out.Status)
}

func TestAdvance_FinishedIsNoop(t *testing.T) {
	ctx := context.Background()
	e := engine.New(promoGraph(t))
	s := startSurvey(t, e)

	mid, _, err := e.Advance(ctx, s, "yes")
	require.NoError(t, err)
	done, _, err := e.Advance(ctx, mid, "go")
	require.NoError(t, err)

	out, rep, err := e.Advance(ctx, done, "more")
	require.NoError(t, err)
	assert.Same(t, done, out)
	assert.True(t, rep.Terminal)
}

func TestAdvance_ProjectionBlocksOnValidation(t *testing.T) {
	ctx := context.Background()
	g := promoGraph(t)
	profiles := memory.NewProfileStore()
	e := engine.New(g, engine.WithProjector(profile.NewProjector(profiles)))

	s := startSurvey(t, e)
	s.CurrentQuestion = "p"

	out, rep, err := e.Advance(ctx, s, "not a phone")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Same(t, s, out, "blocked step must not mutate the survey")
	assert.Nil(t, rep)
	assert.Empty(t, out.AnswerLog)
	assert.Nil(t, profiles.Profile("owner-1"))
}

func TestAdvance_ProjectionCommits(t *testing.T) {
	ctx := context.Background()
	g := promoGraph(t)
	profiles := memory.NewProfileStore()
	e := engine.New(g, engine.WithProjector(profile.NewProjector(profiles)))

	s := startSurvey(t, e)
	s.CurrentQuestion = "p"

	out, _, err := e.Advance(ctx, s, "+79991234567")
	require.NoError(t, err)
	assert.Equal(t, "b", out.CurrentQuestion)
	assert.Equal(t, []string{"Your phone?", "+79991234567"}, out.AnswerLog)

	p := profiles.Profile("owner-1")
	require.NotNil(t, p)
	assert.Equal(t, "+79991234567", p.PhoneNumber)
}

func TestAdvance_Hooks(t *testing.T) {
	ctx := context.Background()
	var entered, left, reasked []string
	e := engine.New(promoGraph(t), engine.WithLifecycleHooks(domain.LifecycleHooks{
		OnQuestionEnter: func(_ context.Context, ev *domain.SurveyEvent) { entered = append(entered, ev.QuestionID) },
		OnQuestionLeave: func(_ context.Context, ev *domain.SurveyEvent) { left = append(left, ev.QuestionID) },
		OnReask:         func(_ context.Context, ev *domain.SurveyEvent) { reasked = append(reasked, ev.QuestionID) },
	}))

	s := startSurvey(t, e)
	_, _, err := e.Advance(ctx, s, "")
	require.NoError(t, err)
	out, _, err := e.Advance(ctx, s, "yes")
	require.NoError(t, err)
	_, _, err = e.Advance(ctx, out, "go")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, entered, "start enters a, advance enters b, terminal enters nothing")
	assert.Equal(t, []string{"a", "b"}, left)
	assert.Equal(t, []string{"a"}, reasked)
}
