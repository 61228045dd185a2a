package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractQuoted(t *testing.T) {
	testcases := []struct {
		name string
		in   string
		want []string
	}{
		{name: "prose around array", in: `Here you go: ["curious", "wary"]`, want: []string{"curious", "wary"}},
		{name: "no quotes", in: "I could not think of any tags.", want: []string{}},
		{name: "empty", in: "", want: []string{}},
		{name: "broken json keeps order", in: `tags: "a", "b" and then "c`, want: []string{"a", "b"}},
		{name: "trailing prose", in: `["music"] hope that helps, "friend"`, want: []string{"music", "friend"}},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractQuoted(tc.in))
		})
	}
}

func TestAffirmative(t *testing.T) {
	testcases := []struct {
		in   string
		want bool
	}{
		{"  YES, because...", true},
		{"yes", true},
		{"Y", true},
		{"No", false},
		{"", false},
		{"   ", false},
		{"Maybe yes", false},
		{"Sure", false},
	}

	for _, tc := range testcases {
		assert.Equal(t, tc.want, Affirmative(tc.in), "answer %q", tc.in)
	}
}

func TestParseList_StructuredPath(t *testing.T) {
	p := NewParser()

	items, structured := p.ParseList(`["curious", "wary"]`, 0)
	assert.True(t, structured)
	assert.Equal(t, []string{"curious", "wary"}, items)

	items, structured = p.ParseList("```json\n[\"playful\"]\n```", 0)
	assert.True(t, structured)
	assert.Equal(t, []string{"playful"}, items)
}

func TestParseList_FallsBackToQuotedScan(t *testing.T) {
	p := NewParser()

	items, structured := p.ParseList(`Here you go: ["curious", "wary"]`, 0)
	assert.False(t, structured)
	assert.Equal(t, []string{"curious", "wary"}, items)

	// Valid JSON that violates the schema also falls back.
	items, structured = p.ParseList(`{"traits": ["calm"]}`, 0)
	assert.False(t, structured)
	assert.Equal(t, []string{"traits", "calm"}, items)

	items, structured = p.ParseList("nothing useful", 0)
	assert.False(t, structured)
	assert.Empty(t, items)
}

func TestParseList_CleansAndTruncates(t *testing.T) {
	p := NewParser()

	items, _ := p.ParseList(`[" warm ", "warm", "", "bold", "shy", "kind", "calm", "odd"]`, 5)
	assert.Equal(t, []string{"warm", "bold", "shy", "kind", "calm"}, items)
}
