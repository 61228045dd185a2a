// Package oracle holds the prompt templates sent to the text-generation
// service and the parsers that turn its free-text answers into values.
//
// The generation service is a black box: every parser here is total. A
// response that cannot be understood resolves to a documented default (an
// empty list, a "no") instead of an error.
package oracle

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/becomeliminal/astra/logging"
)

var quotedPattern = regexp.MustCompile(`"(.*?)"`)

// ExtractQuoted returns every double-quoted substring of text in order of
// appearance. Surrounding prose is ignored and text need not be valid JSON.
// A response without quotes yields an empty, non-nil slice.
func ExtractQuoted(text string) []string {
	matches := quotedPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Affirmative reports whether a yes/no answer is a yes: the trimmed,
// lower-cased response must start with "y". Empty and ambiguous answers are no.
func Affirmative(answer string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y")
}

// Parser decodes list-shaped oracle responses.
type Parser struct {
	validator *Validator
	schema    map[string]interface{}
}

// NewParser creates a parser validating against StringListSchema.
func NewParser() *Parser {
	return &Parser{
		validator: NewValidator(),
		schema:    StringListSchema(),
	}
}

// ParseList extracts a list of short labels from an oracle response.
//
// The primary contract is a bare JSON array of non-empty strings (optionally
// wrapped in a markdown code fence), validated against the list schema. When
// the response does not satisfy it, the labels are recovered by scanning for
// quoted substrings. structured reports which path produced the result.
//
// Items are trimmed, empty items dropped, duplicates removed keeping the first
// occurrence, and the result truncated to limit entries when limit > 0.
func (p *Parser) ParseList(response string, limit int) (items []string, structured bool) {
	raw := stripFence(response)

	var decoded []string
	if err := p.validator.Validate(p.schema, raw); err == nil {
		if jsonErr := json.Unmarshal([]byte(raw), &decoded); jsonErr == nil {
			structured = true
		}
	} else {
		logging.For("oracle").WithError(err).Debug("list response failed schema, scanning quotes")
	}
	if !structured {
		decoded = ExtractQuoted(response)
	}

	return cleanList(decoded, limit), structured
}

func cleanList(in []string, limit int) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, item := range in {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// stripFence removes a single surrounding ``` / ```json fence.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
