package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupFileStore points the file backend at a temp dir and returns that dir.
func setupFileStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GO_ENV", "production")
	t.Setenv("STORE_BACKEND", "file")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("EVENTS_FILE", "")
	t.Setenv("COUNTS_FILE", "")
	t.Setenv("MAILER_PROVIDER", "noop")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FILE", filepath.Join(dir, "ticketing.log"))
	storeBackend, logLevel, serverPort = "", "", ""
	return dir
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func readJSON(t *testing.T, path string, dest any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, dest))
}

func TestSeedCommand(t *testing.T) {
	dir := setupFileStore(t)

	out := run(t, "seed")
	assert.Contains(t, out, `created "Tech Conference 2024"`)
	assert.Contains(t, out, `created "Art Expo 2024"`)

	var counts map[string]int
	readJSON(t, filepath.Join(dir, "data.json"), &counts)
	assert.Equal(t, map[string]int{"Tech Conference 2024": 0, "Music Festival 2024": 0, "Art Expo 2024": 0}, counts)

	out = run(t, "seed", "Art Expo 2024", "Book Fair")
	assert.Contains(t, out, `skipped "Art Expo 2024" (exists)`)
	assert.Contains(t, out, `created "Book Fair"`)
}

func TestReconcileCommand(t *testing.T) {
	dir := setupFileStore(t)
	events := `{"Conf": {"registrations": [{"name": "Alice", "email": "a@x.com"}]}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events.json"), []byte(events), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte(`{"Conf": 0, "Gone": 4}`), 0o644))

	out := run(t, "reconcile")
	assert.Contains(t, out, "2 changed")

	var counts map[string]int
	readJSON(t, filepath.Join(dir, "data.json"), &counts)
	assert.Equal(t, map[string]int{"Conf": 1}, counts)
}

func TestStoreFlagOverridesEnv(t *testing.T) {
	dir := setupFileStore(t)

	out := run(t, "--store", "memory", "seed", "Only In Memory")
	assert.Contains(t, out, `created "Only In Memory"`)
	assert.NoFileExists(t, filepath.Join(dir, "events.json"))
}
