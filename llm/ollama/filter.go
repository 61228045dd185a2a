package ollama

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/becomeliminal/astra/logging"
)

// lineFilterTransport drops NDJSON lines that are not valid JSON from
// successful streamed responses, so one corrupt fragment does not end the
// whole generation.
type lineFilterTransport struct {
	base http.RoundTripper
}

func (t *lineFilterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	// Error bodies are decoded whole by the client.
	if resp.StatusCode >= http.StatusBadRequest {
		return resp, nil
	}
	resp.Body = newLineFilter(resp.Body)
	resp.ContentLength = -1
	return resp, nil
}

type lineFilter struct {
	src     io.ReadCloser
	r       *bufio.Reader
	pending []byte
	err     error
	dropped int
}

func newLineFilter(body io.ReadCloser) *lineFilter {
	return &lineFilter{src: body, r: bufio.NewReader(body)}
}

func (f *lineFilter) Read(p []byte) (int, error) {
	for len(f.pending) == 0 {
		if f.err != nil {
			return 0, f.err
		}
		line, err := f.r.ReadBytes('\n')
		if err != nil {
			f.err = err
		}
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		if !json.Valid(trimmed) {
			f.dropped++
			logging.For("llm").WithField("line", logging.Truncate(string(trimmed), 80)).Debug("skipped malformed stream line")
			continue
		}
		f.pending = append(trimmed, '\n')
	}
	n := copy(p, f.pending)
	f.pending = f.pending[n:]
	return n, nil
}

func (f *lineFilter) Close() error {
	return f.src.Close()
}
