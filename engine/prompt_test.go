package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrompt_String(t *testing.T) {
	p := Prompt{
		Preamble:    "Be brief.",
		Identity:    []string{"You are Astra."},
		Personality: "Traits:\n- curiosity: strong\n",
		Memories:    []string{"User likes jazz."},
		History:     []string{"User: hi", "Bot: hello"},
		Message:     "play something",
	}
	want := "Be brief.\n" +
		"\nAbout you:\n- You are Astra.\n" +
		"\nTraits:\n- curiosity: strong\n" +
		"\nRelevant long-term memories:\n- User likes jazz.\n" +
		"\nPrevious prompts and responses in this chat session:\nUser: hi\nBot: hello\n" +
		"\nCurrent prompt:\nplay something"
	assert.Equal(t, want, p.String())
}

func TestPrompt_StringOmitsEmptyOptionalSections(t *testing.T) {
	got := Prompt{Preamble: "P", Message: "m"}.String()
	assert.Equal(t, "P\n\nRelevant long-term memories:\n\nPrevious prompts and responses in this chat session:\n\nCurrent prompt:\nm", got)
}
