// Package anthropic implements core.StreamingCompleter with Claude's
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"github.com/becomeliminal/astra/logging"
)

const (
	// DefaultModel is the Claude model used when none is configured.
	DefaultModel = "claude-sonnet-4-5"

	// DefaultMaxTokens bounds each response.
	DefaultMaxTokens = 1024
)

// Config configures the completer.
type Config struct {
	// APIKey authenticates requests. Empty uses ANTHROPIC_API_KEY.
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the Claude model. Default: DefaultModel.
	Model string

	// MaxTokens is the maximum response tokens. Default: DefaultMaxTokens.
	MaxTokens int64
}

// Completer sends each prompt as a single user message.
type Completer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates a completer.
func New(cfg Config) *Completer {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	// Every call is single-attempt.
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Completer{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (c *Completer) params(prompt string) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
}

// Complete returns the text of Claude's response to prompt.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, c.params(prompt))
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}
	return messageText(resp), nil
}

// CompleteStream streams the response, calling onFragment with each text
// delta. Events that fail to accumulate are skipped.
func (c *Completer) CompleteStream(ctx context.Context, prompt string, onFragment func(string)) (string, error) {
	stream := c.client.Messages.NewStreaming(ctx, c.params(prompt))
	defer stream.Close()

	log := logging.For("llm")
	message := anthropic.Message{}
	skipped := 0

	for stream.Next() {
		event := stream.Current()

		if err := message.Accumulate(event); err != nil {
			skipped++
			log.WithError(err).Debug("skipping stream event")
			continue
		}

		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := evt.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if delta.Text != "" && onFragment != nil {
					onFragment(delta.Text)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("claude stream error: %w", err)
	}

	log.WithFields(logrus.Fields{
		"model":         c.model,
		"input_tokens":  message.Usage.InputTokens,
		"output_tokens": message.Usage.OutputTokens,
		"skipped":       skipped,
	}).Debug("generation complete")
	return messageText(&message), nil
}

func messageText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
