package engine

import (
	"strings"
)

// DefaultPreamble is the fixed instruction block opening every prompt.
const DefaultPreamble = `You have a long-term memory database and are provided with the last prompts and responses (short term memory).
Do not end responses with generic sign-offs such as "Have a nice day," "Take care," or similar phrases.
If any previous prompts are provided don't respond with an introduction or greeting, just continue the conversation.
You are designed to be a conversational AI so don't provide rambling or technical responses unless specifically requested.`

// Prompt is the outbound generation prompt before rendering.
type Prompt struct {
	Preamble    string
	Identity    []string
	Personality string
	Memories    []string
	History     []string
	Message     string
}

// String renders the prompt sections in their fixed order: preamble,
// identity, personality, long-term memories, session history, current
// message.
func (p Prompt) String() string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(p.Preamble))
	sb.WriteString("\n")

	if len(p.Identity) > 0 {
		sb.WriteString("\nAbout you:\n")
		for _, line := range p.Identity {
			sb.WriteString("- " + line + "\n")
		}
	}

	if p.Personality != "" {
		sb.WriteString("\n")
		sb.WriteString(strings.TrimRight(p.Personality, "\n"))
		sb.WriteString("\n")
	}

	sb.WriteString("\nRelevant long-term memories:\n")
	for _, m := range p.Memories {
		sb.WriteString("- " + m + "\n")
	}

	sb.WriteString("\nPrevious prompts and responses in this chat session:\n")
	for _, line := range p.History {
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\nCurrent prompt:\n")
	sb.WriteString(p.Message)
	return sb.String()
}
