package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/astra/engine"
	"github.com/becomeliminal/astra/llm/scripted"
	"github.com/becomeliminal/astra/memory"
	"github.com/becomeliminal/astra/memory/embedder/mock"
	"github.com/becomeliminal/astra/memory/store/chromem"
	"github.com/becomeliminal/astra/personality"
)

func newTestServer(t *testing.T, oracle *scripted.Completer, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	store, err := chromem.New(chromem.Config{})
	require.NoError(t, err)

	mem := memory.NewManager(store, mock.New(8), oracle, nil)
	pers := personality.NewMachine(oracle, personality.NewJSONFileStore(filepath.Join(t.TempDir(), "traits.json")))
	srv := New(engine.NewEngine(oracle, mem, pers), opts...)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServer_Reply(t *testing.T) {
	oracle := scripted.New("").On("Current prompt:", "Hello there.").On("semantic tags", "[]")
	srv, ts := newTestServer(t, oracle)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(Request{Message: "hi"}))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))

	assert.Equal(t, FrameReply, resp.Type)
	assert.Equal(t, "Hello there.", resp.Text)
	assert.Zero(t, resp.Retrieved)
	assert.True(t, resp.Saved)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, []string{"User: hi", "Bot: Hello there."}, srv.session.Buffer.Lines())
}

func TestServer_StreamsChunks(t *testing.T) {
	oracle := scripted.New("").On("Current prompt:", "one two three").On("semantic tags", "[]")
	_, ts := newTestServer(t, oracle, WithStreaming(true))
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(Request{Message: "count"}))

	var chunks []string
	for {
		var resp Response
		require.NoError(t, conn.ReadJSON(&resp))
		if resp.Type == FrameReply {
			assert.Equal(t, "one two three", resp.Text)
			break
		}
		require.Equal(t, FrameChunk, resp.Type)
		chunks = append(chunks, resp.Text)
	}
	assert.Equal(t, "one two three", strings.Join(chunks, ""))
}

func TestServer_Errors(t *testing.T) {
	oracle := scripted.New("").Fail("Current prompt:", errors.New("model offline")).On("semantic tags", "[]")
	_, ts := newTestServer(t, oracle)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(Request{Message: "  "}))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, FrameError, resp.Type)
	assert.Equal(t, "message is required", resp.Error)

	require.NoError(t, conn.WriteJSON(Request{Message: "hi"}))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, FrameError, resp.Type)
	assert.Contains(t, resp.Error, "model offline")
}

func TestServer_Health(t *testing.T) {
	srv, ts := newTestServer(t, scripted.New(""))

	res, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, srv.session.ID, body["session"])
	assert.EqualValues(t, 0, body["turns"])
}
