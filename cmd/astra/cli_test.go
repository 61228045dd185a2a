package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/astra/memory/store/chromem"
	"github.com/becomeliminal/astra/personality"
)

func runRootCommandForTest(args ...string) (string, error) {
	root := buildRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// offlineConfig writes a config that needs no model services. It returns the
// config path and the directory holding the data files.
func offlineConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	body := strings.Join([]string{
		"llm:",
		"  provider: scripted",
		"embedding:",
		"  provider: mock",
		"  dimensions: 16",
		"store:",
		"  path: " + filepath.Join(dir, "memories"),
		"personality:",
		"  path: " + filepath.Join(dir, "traits.json"),
		"log:",
		"  level: error",
	}, "\n")
	path := filepath.Join(dir, "astra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path, dir
}

func TestCLIHelpListsCommands(t *testing.T) {
	out, err := runRootCommandForTest("--help")
	require.NoError(t, err)
	for _, name := range []string{"chat", "ask", "recall", "traits", "serve", "--config", "--log-level"} {
		assert.Contains(t, out, name)
	}
}

func TestCLIRequiresSubcommand(t *testing.T) {
	_, err := runRootCommandForTest()
	assert.Error(t, err)
}

func TestCLIAskCommitsFirstExchange(t *testing.T) {
	cfg, dir := offlineConfig(t)

	out, err := runRootCommandForTest("--config", cfg, "ask", "I", "love", "jazz")
	require.NoError(t, err)
	assert.Contains(t, out, "I'm running offline")

	// Nothing was surfaced, so the exchange was committed to the persistent
	// store.
	store, err := chromem.New(chromem.Config{Path: filepath.Join(dir, "memories")})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Count())
}

func TestCLIRecallEmpty(t *testing.T) {
	cfg, _ := offlineConfig(t)
	out, err := runRootCommandForTest("--config", cfg, "recall", "anything")
	require.NoError(t, err)
	assert.Contains(t, out, "No relevant memories.")
}

func TestCLITraits(t *testing.T) {
	cfg, dir := offlineConfig(t)

	out, err := runRootCommandForTest("--config", cfg, "traits")
	require.NoError(t, err)
	assert.Contains(t, out, "No personality traits yet.")

	traits := personality.NewJSONFileStore(filepath.Join(dir, "traits.json"))
	require.NoError(t, traits.Save(context.Background(), personality.TraitMap{"curiosity": 0.9, "wary": 0.2}))

	out, err = runRootCommandForTest("--config", cfg, "traits")
	require.NoError(t, err)
	assert.Contains(t, out, "- curiosity: very strong")
	assert.Contains(t, out, "wary")
	assert.Contains(t, out, "0.90")
}

func TestCLIInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astra.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  threshold: 2\n"), 0o644))

	_, err := runRootCommandForTest("--config", path, "traits")
	assert.ErrorContains(t, err, "threshold")
}
