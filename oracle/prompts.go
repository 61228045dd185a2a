package oracle

import "fmt"

// SaveDecisionPrompt asks whether an exchange belongs in long-term memory.
func SaveDecisionPrompt(exchange string) string {
	return fmt.Sprintf(`Should this conversation be stored as long-term memory? Only consider:
- Facts about the user
- Emotional significance
- Preferences or personality updates

Answer only 'Yes' or 'No'.
Exchange: %s`, exchange)
}

// SummaryPrompt asks for a one-sentence summary of text.
func SummaryPrompt(text string) string {
	return "Summarize the following text concisely in one sentence, capturing the main facts, decisions, or important details only: " + text
}

// TagsPrompt asks for a small set of semantic labels describing text.
func TagsPrompt(text string) string {
	return fmt.Sprintf(`Generate up to 5 short semantic tags (one or two words each, lowercase) describing the topics of the following text.
Respond only with a JSON array of strings, for example ["music", "family"].
Text: %s`, text)
}

// ReflectionPrompt asks how the agent feels about an exchange.
func ReflectionPrompt(exchange string) string {
	return fmt.Sprintf(`Reflect briefly, in the first person and in natural language, on how you feel about the following exchange and what it means to you emotionally.
Exchange: %s`, exchange)
}

// GrowthPrompt asks which traits would strengthen given a reflection.
func GrowthPrompt(reflection string, limit int) string {
	return fmt.Sprintf(`Given this emotional reflection, list up to %d personality traits (1-3 words each) that would grow stronger.
Respond only with a JSON array of strings.
Reflection: %s`, limit, reflection)
}

// DecayPrompt asks which traits would weaken given a reflection.
func DecayPrompt(reflection string, limit int) string {
	return fmt.Sprintf(`Given this emotional reflection, list up to %d personality traits (1-3 words each) that would grow weaker.
Respond only with a JSON array of strings.
Reflection: %s`, limit, reflection)
}
