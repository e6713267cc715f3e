package validator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaEmelin/chatbot-promotion/internal/validator"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/domain"
	"github.com/IlyaEmelin/chatbot-promotion/pkg/dsl"
)

func TestValidateGraph_OK(t *testing.T) {
	b := dsl.New()
	b.Add("start").
		Text("Want a promo?").
		Entry(domain.QuestionTypeStart).
		On("yes", "which").
		Free("why_not")
	b.Add("which").Text("Which one?").End("go")
	b.Add("why_not").Text("Why not?").EndFree()

	g, err := b.Build()
	require.NoError(t, err)

	assert.NoError(t, validator.ValidateGraph(context.Background(), g))
}

func TestValidateGraph_NoEntry(t *testing.T) {
	b := dsl.New()
	b.Add("floating").Text("Hello")
	g, err := b.Build()
	require.NoError(t, err)

	err = validator.ValidateGraph(context.Background(), g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry question")
}

func TestValidateGraph_Unreachable(t *testing.T) {
	b := dsl.New()
	b.Add("start").Text("Hello").Entry(domain.QuestionTypeStart).End("bye")
	b.Add("island").Text("Nobody asks me")
	g, err := b.Build()
	require.NoError(t, err)

	err = validator.ValidateGraph(context.Background(), g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `question "island" is unreachable`)
}

func TestValidateGraph_MissingText(t *testing.T) {
	b := dsl.New()
	b.Add("start").Entry(domain.QuestionTypeStart).End("bye")
	g, err := b.Build()
	require.NoError(t, err)

	err = validator.ValidateGraph(context.Background(), g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no text")
}

func TestValidateGraph_AmbiguousJunction(t *testing.T) {
	b := dsl.New()
	b.Add("start").
		Text("Pick a door").
		Entry(domain.QuestionTypeStart).
		On("left", "left_door").
		On("right", "right_door")
	// Both doors show the same text and accept "red" into the same target.
	b.Add("left_door").Text("Pick a color").On("red", "join")
	b.Add("right_door").Text("Pick a color").On("red", "join")
	b.Add("join").Text("Through").End("bye")

	g, err := b.Build()
	require.NoError(t, err)

	err = validator.ValidateGraph(context.Background(), g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undo ambiguity")
}

func TestValidateGraph_BadFieldRef(t *testing.T) {
	b := dsl.New()
	b.Add("start").
		Text("Your phone?").
		Entry(domain.QuestionTypeStart).
		SaveTo("User.no_such_field").
		EndFree()
	g, err := b.Build()
	require.NoError(t, err)

	err = validator.ValidateGraph(context.Background(), g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no projectable field")
}

func TestValidateGraph_DuplicateEntryTag(t *testing.T) {
	b := dsl.New()
	b.Add("start_a").Text("Hello").Entry(domain.QuestionTypeStart).End("bye")
	b.Add("start_b").Text("Hello again").Entry(domain.QuestionTypeStart).End("bye")
	g, err := b.Build()
	require.NoError(t, err)

	err = validator.ValidateGraph(context.Background(), g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `entry type "start" is carried by 2 questions: start_a, start_b`)
}
