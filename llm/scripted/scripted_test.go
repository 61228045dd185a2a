package scripted

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleter_RulesInOrder(t *testing.T) {
	ctx := context.Background()
	c := New("fallback").
		On("Answer only", "Yes").
		On("Answer", "never reached").
		Fail("boom", errors.New("down"))

	got, err := c.Complete(ctx, "please Answer only yes")
	require.NoError(t, err)
	assert.Equal(t, "Yes", got)

	got, err = c.Complete(ctx, "something else")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)

	_, err = c.Complete(ctx, "boom")
	assert.EqualError(t, err, "down")

	assert.Len(t, c.Prompts(), 3)
	assert.Equal(t, []string{"something else"}, c.PromptsContaining("else"))
}

func TestCompleter_Stream(t *testing.T) {
	c := New("hello there friend")
	var frags []string
	got, err := c.CompleteStream(context.Background(), "hi", func(s string) { frags = append(frags, s) })
	require.NoError(t, err)
	assert.Equal(t, "hello there friend", got)
	assert.Equal(t, got, strings.Join(frags, ""))
	assert.Len(t, frags, 3)
}

func TestCompleter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New("x").Complete(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
}
