package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/latentqa-go/internal/domain/entities"
	"github.com/0xcro3dile/latentqa-go/internal/infrastructure/config"
)

const dataset = `{
  "show_overview": {"title": "India's Got Latent", "host": "Samay Raina"},
  "faq_answers": [{"question": "Who hosts?", "answer": "Samay Raina"}],
  "Episodes": [
    {"episode": 3, "content": [{"type": "Joke", "content": "A joke"}]}
  ]
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&runtime{version: "test", stderr: io.Discard})
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// fakeOllama answers embedding requests with a vector derived from the prompt length.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float32{1, float32(len(req.Prompt))},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClassifyCommand(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := run(t, "classify", "who", "judged", "episode", "3")
	require.NoError(t, err)

	var intent entities.Intent
	require.NoError(t, json.Unmarshal([]byte(out), &intent))
	assert.Equal(t, entities.Intent{Type: entities.IntentEpisode, Episode: "3", TopK: 5}, intent)
}

func TestClassifyCommand_RequiresQuery(t *testing.T) {
	_, err := run(t, "classify")
	assert.Error(t, err)
}

func TestIndexBuild_MemorySnapshot(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	srv := fakeOllama(t)

	dataPath := filepath.Join(dir, "latent.json")
	snapshot := filepath.Join(dir, "data", "index.json")
	require.NoError(t, writeFile(dataPath, dataset))

	t.Setenv("LATENTQA_EMBEDDING_BASE_URL", srv.URL)
	t.Setenv("LATENTQA_INDEX_SNAPSHOT", snapshot)

	out, err := run(t, "index", "build", "--data", dataPath, "--index-backend", "memory")
	require.NoError(t, err)
	assert.Equal(t, "indexed 3 documents\n", out)

	st, err := openStore(context.Background(), config.IndexConfig{Backend: "memory", Snapshot: snapshot}, discardLogger())
	require.NoError(t, err)
	defer st.close()

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIndexBuild_SQLite(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	srv := fakeOllama(t)

	dataPath := filepath.Join(dir, "latent.json")
	require.NoError(t, writeFile(dataPath, dataset))

	t.Setenv("LATENTQA_EMBEDDING_BASE_URL", srv.URL)
	t.Setenv("LATENTQA_INDEX_PATH", filepath.Join(dir, "db"))

	_, err := run(t, "index", "build", "--data", dataPath)
	require.NoError(t, err)

	// A rebuild replaces rather than appends.
	_, err = run(t, "index", "build", "--data", dataPath)
	require.NoError(t, err)

	st, err := openStore(context.Background(), config.IndexConfig{Backend: "sqlite", Path: filepath.Join(dir, "db")}, discardLogger())
	require.NoError(t, err)
	defer st.close()

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIndexBuild_RequiresData(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := run(t, "index", "build")
	assert.ErrorContains(t, err, "data")
}

func TestIndexBuild_MissingDataset(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	_, err := run(t, "index", "build", "--data", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestOpenStore_MemoryWithoutSnapshotStartsEmpty(t *testing.T) {
	st, err := openStore(context.Background(), config.IndexConfig{
		Backend:  "memory",
		Snapshot: filepath.Join(t.TempDir(), "absent.json"),
	}, discardLogger())
	require.NoError(t, err)

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := openStore(context.Background(), config.IndexConfig{Backend: "lancedb"}, discardLogger())
	assert.ErrorContains(t, err, "unknown index backend")
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "test")
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
