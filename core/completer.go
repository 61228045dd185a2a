package core

import (
	"context"
	"errors"
)

// ErrOracle marks a failure of the text-generation service itself (transport,
// auth, model errors). Unparseable responses are not oracle errors; callers
// resolve those to documented defaults.
var ErrOracle = errors.New("oracle unavailable")

// Completer is the narrow text completion capability shared by the memory and
// personality components. The engine owns the concrete implementation and
// injects it at construction time.
type Completer interface {
	// Complete sends a prompt and returns the full response text.
	Complete(ctx context.Context, prompt string) (string, error)
}

// StreamingCompleter is implemented by completers whose transport delivers the
// response as incremental fragments. onFragment is called for each non-empty
// fragment in arrival order; the returned string is their concatenation.
type StreamingCompleter interface {
	Completer
	CompleteStream(ctx context.Context, prompt string, onFragment func(string)) (string, error)
}

// CompleterFunc adapts an ordinary function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f(ctx, prompt).
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
