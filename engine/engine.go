package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/becomeliminal/astra/core"
	"github.com/becomeliminal/astra/logging"
	"github.com/becomeliminal/astra/memory"
	"github.com/becomeliminal/astra/personality"
)

// ErrEmptyMessage is returned for a turn whose message is blank.
var ErrEmptyMessage = errors.New("empty message")

// Engine runs conversation turns: it retrieves memories, assembles the
// prompt, calls the generation service and decides what to remember.
type Engine struct {
	generator   core.Completer
	memory      *memory.Manager
	personality *personality.Machine
	preamble    string
	identity    []string
}

// Option configures the engine.
type Option func(*Engine)

// WithPreamble replaces DefaultPreamble.
func WithPreamble(preamble string) Option {
	return func(e *Engine) {
		e.preamble = preamble
	}
}

// WithIdentity sets the persona facts listed after the preamble.
func WithIdentity(lines []string) Option {
	return func(e *Engine) {
		e.identity = append([]string(nil), lines...)
	}
}

// NewEngine creates an engine. generator answers the user; the memory manager
// and personality machine carry their own oracle.
func NewEngine(generator core.Completer, mem *memory.Manager, pers *personality.Machine, opts ...Option) *Engine {
	e := &Engine{
		generator:   generator,
		memory:      mem,
		personality: pers,
		preamble:    DefaultPreamble,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Memory returns the engine's memory manager.
func (e *Engine) Memory() *memory.Manager {
	return e.memory
}

// Personality returns the engine's personality machine.
func (e *Engine) Personality() *personality.Machine {
	return e.personality
}

// Input represents one user turn.
type Input struct {
	// UserMessage is the user's message to process.
	UserMessage string

	// StreamCallback is an optional callback for streaming responses. It is
	// called with each fragment and once more with done set when generation
	// finishes. It only streams when the generator supports it; otherwise it
	// receives the whole reply as one fragment.
	StreamCallback func(chunk string, done bool)
}

// Output reports what happened in a turn.
type Output struct {
	// Text is the bot's reply.
	Text string

	// Retrieved is how many memories the ranker returned for this turn.
	Retrieved int

	// Saved reports whether the exchange was committed to long-term memory.
	Saved bool

	// Memory is the committed memory when Saved is set.
	Memory *memory.Memory

	// Traits is the trait map after the personality update when Saved is set.
	Traits personality.TraitMap

	// Duration is the wall time of the turn.
	Duration time.Duration
}

// Turn runs one user turn against session. The order is fixed:
//
//  1. retrieve memories into the session's active set
//  2. assemble the prompt from the state before this turn
//  3. append the user line to the buffer
//  4. generate the reply
//  5. decide whether to persist the exchange
//  6. if so, update the personality and commit a memory
//  7. append the bot line to the buffer
//
// A failure before generation returns no output. A failure in steps 5 or 6
// still records the reply in the buffer and returns it alongside the error.
func (e *Engine) Turn(ctx context.Context, session *Session, input *Input) (*Output, error) {
	start := time.Now()
	msg := strings.TrimSpace(input.UserMessage)
	if msg == "" {
		return nil, ErrEmptyMessage
	}
	session.turns++

	log := logging.For("engine").WithFields(logrus.Fields{
		"session": session.ID,
		"turn":    session.turns,
	})

	// Phase 1: retrieval
	retrieved, err := e.memory.Retrieve(ctx, session.Active, msg)
	if err != nil {
		return nil, fmt.Errorf("retrieve memories: %w", err)
	}

	// Phase 2: prompt assembly
	block, err := e.personality.Render(ctx)
	if err != nil {
		return nil, fmt.Errorf("render personality: %w", err)
	}
	prompt := Prompt{
		Preamble:    e.preamble,
		Identity:    e.identity,
		Personality: block,
		Memories:    session.Active.Documents(),
		History:     session.Buffer.Lines(),
		Message:     msg,
	}

	// Phase 3: record the user line
	session.Buffer.Append(core.UserLine(msg))

	// Phase 4: generation
	reply, err := e.generate(ctx, prompt.String(), input.StreamCallback)
	if err != nil {
		return nil, fmt.Errorf("%w: generate reply: %w", core.ErrOracle, err)
	}

	out := &Output{Text: reply, Retrieved: retrieved}
	exchange := core.Exchange{UserMessage: msg, BotResponse: reply}

	// Phases 5 and 6, with phase 7 run regardless of their outcome
	err = e.remember(ctx, exchange, out)
	session.Buffer.Append(core.BotLine(reply))
	out.Duration = time.Since(start)

	fields := logrus.Fields{
		"retrieved": out.Retrieved,
		"saved":     out.Saved,
		"duration":  out.Duration.String(),
	}
	if err != nil {
		log.WithFields(fields).WithError(err).Error("turn failed after generation")
		return out, err
	}
	log.WithFields(fields).Info("turn complete")
	return out, nil
}

// remember runs the persistence decision and, when it triggers, the
// personality update followed by the memory commit.
func (e *Engine) remember(ctx context.Context, exchange core.Exchange, out *Output) error {
	yes, err := e.memory.ShouldSave(ctx, exchange)
	if err != nil {
		return fmt.Errorf("save decision: %w", err)
	}
	if !memory.ShouldPersist(yes, out.Retrieved) {
		return nil
	}

	upd, err := e.personality.Update(ctx, exchange)
	if err != nil {
		return fmt.Errorf("update personality: %w", err)
	}
	out.Traits = upd.Traits

	mem, err := e.memory.Commit(ctx, exchange)
	if err != nil {
		return fmt.Errorf("commit memory: %w", err)
	}
	out.Saved = true
	out.Memory = mem
	return nil
}

// generate calls the generator, streaming when both the caller and the
// generator support it.
func (e *Engine) generate(ctx context.Context, prompt string, callback func(string, bool)) (string, error) {
	if callback == nil {
		return e.generator.Complete(ctx, prompt)
	}

	var (
		reply string
		err   error
	)
	if sc, ok := e.generator.(core.StreamingCompleter); ok {
		reply, err = sc.CompleteStream(ctx, prompt, func(chunk string) {
			callback(chunk, false)
		})
	} else {
		reply, err = e.generator.Complete(ctx, prompt)
		if err == nil && reply != "" {
			callback(reply, false)
		}
	}
	if err != nil {
		return "", err
	}
	callback("", true)
	return reply, nil
}
