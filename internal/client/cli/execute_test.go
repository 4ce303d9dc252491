package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/reconkeeper/internal/client/config"
)

// backend fakes the control plane and a public-read object store on one
// server; the store lives under /reconstruction.
type backend struct {
	*httptest.Server

	mu       sync.Mutex
	intents  map[string]map[string]any
	puts     map[string][]byte
	confirms []string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{intents: map[string]map[string]any{}, puts: map[string][]byte{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /clips/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.intents[r.PathValue("id")] = body
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"url": b.URL + "/put/" + r.PathValue("id")})
	})
	mux.HandleFunc("PUT /put/{id}", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.puts[r.PathValue("id")] = data
		b.mu.Unlock()
		w.Header().Set("ETag", `"e1"`)
	})
	mux.HandleFunc("POST /clips/{id}/confirm", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.confirms = append(b.confirms, r.PathValue("id"))
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("GET /bundles/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "b1" {
			http.Error(w, `{"message":"no such bundle"}`, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"_id":"b1","itemIds":["p1"]}`))
	})
	mux.HandleFunc("GET /items", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filter[parentId]") != "p1" {
			_, _ = w.Write([]byte(`{"items":[],"page":1,"limit":1000,"total":0}`))
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"_id":"c1","parentId":"p1","extension":"jpg"}],"page":1,"limit":1000,"total":1}`))
	})
	mux.HandleFunc("GET /reconstruction/items/p1/children/c1/image.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	})

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func (b *backend) flags(dir string) []string {
	return []string{
		"--api-endpoint", b.URL,
		"--store-base-url", b.URL + "/reconstruction",
		"--journal-path", filepath.Join(dir, "journal.db"),
		"--output-dir", filepath.Join(dir, "out"),
		"--metrics-textfile", filepath.Join(dir, "rk.prom"),
		"--log-level", "error",
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), args, strings.NewReader(""), &out, &errOut)
	return out.String(), err
}

func TestExecute_Keys(t *testing.T) {
	out, err := run(t, "keys", "item", "abc", "--parent", "p1", "--ext", "png")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "items/p1/children/abc/image.png", lines[0])
	assert.Contains(t, lines, "items/p1/children/abc/depth.png")
	assert.Contains(t, lines, "items/p1/children/abc/features/descriptors.npy")

	out, err = run(t, "keys", "clip", "v1")
	require.NoError(t, err)
	assert.Equal(t, "clips/v1.jpg\n", out)
}

func TestExecute_UploadClip(t *testing.T) {
	b := newBackend(t)
	dir := t.TempDir()
	clip := filepath.Join(dir, "walk.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("not really a video"), 0o600))

	out, err := run(t, append([]string{"upload", "clip", clip}, b.flags(dir)...)...)
	require.NoError(t, err)

	assert.Contains(t, out, "[success   ] walk.mp4")
	assert.Contains(t, out, "1 uploaded, 0 failed")

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.confirms, 1)
	id := b.confirms[0]
	assert.Equal(t, []byte("not really a video"), b.puts[id])
	assert.Equal(t, "mp4", b.intents[id]["extension"])
	assert.NotContains(t, b.intents[id], "parts")

	prom, err := os.ReadFile(filepath.Join(dir, "rk.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "reconkeeper_transfer_duration_seconds")
	assert.FileExists(t, filepath.Join(dir, "journal.db"))
}

func TestExecute_ArchiveBundle(t *testing.T) {
	b := newBackend(t)
	dir := t.TempDir()

	out, err := run(t, append([]string{"archive", "bundle", "b1"}, b.flags(dir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "1 file(s) archived")
	assert.Contains(t, out, "written")

	zr, err := zip.OpenReader(filepath.Join(dir, "out", "bundle_b1.zip"))
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"images/c1.png"}, names)
	assert.NoFileExists(t, filepath.Join(dir, "journal.db"), "archiving never opens the journal")
}

func TestExecute_PlanUnknownBundle(t *testing.T) {
	b := newBackend(t)
	_, err := run(t, append([]string{"plan", "bundle", "nope"}, b.flags(t.TempDir())...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestExecute_InvalidConfig(t *testing.T) {
	_, err := run(t, "archive", "item", "x", "--store-mode", "ftp")
	require.ErrorIs(t, err, config.ErrInvalid)
}
