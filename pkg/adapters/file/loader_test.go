package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaEmelin/chatbot-promotion/pkg/adapters/file"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
)

const sampleYAML = `
questions:
  - id: start
    text: "Want a promo?"
    type: start
    choices:
      - answer: "yes"
        to: which
      - to: why_not
  - id: which
    text: "Which one?"
    choices:
      - answer: "go"
        new_status: rejected
  - id: why_not
    text: "Why not?"
  - id: phone
    text: "Your phone?"
    save_to: User.phone_number
`

func TestParse(t *testing.T) {
	ctx := context.Background()
	mod := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	g, err := file.Parse([]byte(sampleYAML), mod)
	require.NoError(t, err)

	start, err := g.Question(ctx, "start")
	require.NoError(t, err)
	assert.Equal(t, "Want a promo?", start.Text)
	assert.Equal(t, domain.QuestionTypeStart, start.Type)
	assert.Equal(t, mod, start.UpdatedAt)

	phone, err := g.Question(ctx, "phone")
	require.NoError(t, err)
	assert.Equal(t, "User.phone_number", phone.ExternalFieldRef)

	edge, err := g.Edge(ctx, "start", "yes")
	require.NoError(t, err)
	assert.Equal(t, "which", edge.To)

	wild, err := g.WildcardEdge(ctx, "start")
	require.NoError(t, err)
	assert.Equal(t, "why_not", wild.To)

	terminal, err := g.Edge(ctx, "which", "go")
	require.NoError(t, err)
	assert.True(t, terminal.Terminal())
	assert.Equal(t, domain.StatusRejected, terminal.NewStatus)
}

func TestParse_DeterministicTokens(t *testing.T) {
	ctx := context.Background()
	mod := time.Now().UTC()

	g1, err := file.Parse([]byte(sampleYAML), mod)
	require.NoError(t, err)
	g2, err := file.Parse([]byte(sampleYAML), mod)
	require.NoError(t, err)

	q1, err := g1.Question(ctx, "start")
	require.NoError(t, err)
	q2, err := g2.Question(ctx, "start")
	require.NoError(t, err)
	assert.Equal(t, q1.VersionToken, q2.VersionToken, "same content, same token")

	edited := []byte(`
questions:
  - id: start
    text: "Still want a promo?"
    type: start
`)
	g3, err := file.Parse(edited, mod)
	require.NoError(t, err)
	q3, err := g3.Question(ctx, "start")
	require.NoError(t, err)
	assert.NotEqual(t, q1.VersionToken, q3.VersionToken, "edited text, new token")
}

func TestParse_Errors(t *testing.T) {
	var cfgErr *domain.ConfigError

	_, err := file.Parse([]byte("questions: ["), time.Now())
	require.ErrorAs(t, err, &cfgErr)

	_, err = file.Parse([]byte("questions: []"), time.Now())
	require.ErrorAs(t, err, &cfgErr)

	dangling := `
questions:
  - id: start
    text: "Hello"
    choices:
      - answer: "yes"
        to: missing
`
	_, err = file.Parse([]byte(dangling), time.Now())
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	g, err := file.Load(path)
	require.NoError(t, err)

	q, err := g.Question(context.Background(), "start")
	require.NoError(t, err)
	assert.False(t, q.UpdatedAt.IsZero())

	_, err = file.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
