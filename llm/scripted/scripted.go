// Package scripted is a deterministic completer for tests and offline runs.
// Responses are chosen by matching rules against the prompt text, so a test
// can script the save decision, the tags and the reply independently.
package scripted

import (
	"context"
	"strings"
	"sync"
)

// Rule answers prompts containing Match.
type Rule struct {
	Match    string
	Response string
	Err      error
}

// Completer answers from its rules in registration order. A prompt matching no
// rule gets the fallback response.
type Completer struct {
	mu       sync.Mutex
	rules    []Rule
	fallback string
	prompts  []string
}

// New creates a completer whose unmatched prompts get fallback.
func New(fallback string) *Completer {
	return &Completer{fallback: fallback}
}

// On registers a response for prompts containing match.
func (c *Completer) On(match, response string) *Completer {
	return c.add(Rule{Match: match, Response: response})
}

// Fail makes prompts containing match return err.
func (c *Completer) Fail(match string, err error) *Completer {
	return c.add(Rule{Match: match, Err: err})
}

func (c *Completer) add(r Rule) *Completer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, r)
	return c
}

// Complete returns the first matching rule's response.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	for _, r := range c.rules {
		if strings.Contains(prompt, r.Match) {
			return r.Response, r.Err
		}
	}
	return c.fallback, nil
}

// CompleteStream delivers the response word by word.
func (c *Completer) CompleteStream(ctx context.Context, prompt string, onFragment func(string)) (string, error) {
	resp, err := c.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if onFragment != nil {
		for _, frag := range strings.SplitAfter(resp, " ") {
			if frag != "" {
				onFragment(frag)
			}
		}
	}
	return resp, nil
}

// Prompts returns every prompt received, oldest first.
func (c *Completer) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}

// PromptsContaining returns the received prompts containing substr.
func (c *Completer) PromptsContaining(substr string) []string {
	var out []string
	for _, p := range c.Prompts() {
		if strings.Contains(p, substr) {
			out = append(out, p)
		}
	}
	return out
}
