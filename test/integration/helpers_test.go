//go:build integration

package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/monokit-dev/monokit/internal/fsys"
	"github.com/monokit-dev/monokit/internal/pkgjson"
	"github.com/monokit-dev/monokit/internal/registry"
	"github.com/monokit-dev/monokit/internal/scaffold"
	"github.com/monokit-dev/monokit/internal/shell"
)

// fakeRegistry serves "<name>/latest" documents like the npm registry.
type fakeRegistry struct {
	mu       sync.Mutex
	versions map[string]string
	requests int
}

func (f *fakeRegistry) set(name, version string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versions[name] = version
}

func (f *fakeRegistry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), "/latest")
	v, ok := f.versions[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"name": name, "version": v})
}

// testEnv is a sandbox on the real filesystem.
type testEnv struct {
	Root     string
	Env      *fsys.Env
	Registry *fakeRegistry
	Client   *registry.Client
	Runner   *shell.Recorder
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolving temp dir: %v", err)
	}

	reg := &fakeRegistry{versions: map[string]string{
		"typescript":  "5.6.2",
		"vitest":      "2.1.0",
		"oxlint":      "0.9.0",
		"tsdown":      "0.5.0",
		"husky":       "9.1.0",
		"lint-staged": "15.2.0",
		"pnpm":        "9.12.0",
		"zod":         "3.23.8",
	}}
	srv := httptest.NewServer(reg)
	t.Cleanup(srv.Close)

	return &testEnv{
		Root:     root,
		Env:      &fsys.Env{FS: osfs.New(string(filepath.Separator)), Cwd: root},
		Registry: reg,
		Client:   registry.New(registry.WithBaseURL(srv.URL), registry.WithHTTPClient(srv.Client())),
		Runner:   &shell.Recorder{},
	}
}

func (e *testEnv) deps(cwd string) scaffold.Deps {
	return scaffold.Deps{
		Env:      e.Env.WithCwd(cwd),
		Versions: e.Client,
		Runner:   e.Runner,
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s", path)
	}
}

func loadManifest(t *testing.T, e *testEnv, path string) *pkgjson.Manifest {
	t.Helper()
	m, err := pkgjson.Load(e.Env.FS, path)
	if err != nil {
		t.Fatalf("loading %s: %v", path, err)
	}
	return m
}
