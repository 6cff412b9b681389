package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monokit-dev/monokit/internal/config"
	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/fsys"
	"github.com/monokit-dev/monokit/internal/pkgjson"
	"github.com/monokit-dev/monokit/internal/registry"
	"github.com/monokit-dev/monokit/internal/shell"
	"github.com/monokit-dev/monokit/internal/workspace"
)

type fakeRegistry map[string]string

func (f fakeRegistry) LatestVersion(_ context.Context, name string) (string, error) {
	if v, ok := f[name]; ok {
		return v, nil
	}
	return "", &errs.NetworkError{Package: name, Err: errors.New("package not found")}
}

var latest = fakeRegistry{
	"typescript":  "5.6.2",
	"vitest":      "2.1.0",
	"oxlint":      "0.9.0",
	"husky":       "9.1.0",
	"lint-staged": "15.2.0",
	"pnpm":        "9.12.0",
	"zod":         "3.23.8",
	"tsdown":      "0.5.0",
}

type harness struct {
	env    *fsys.Env
	runner *shell.Recorder
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T, cwd string) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	h := &harness{env: fsys.Memory(cwd), runner: &shell.Recorder{}}

	origEnv, origInteractive, origRegistry, origRunner := openEnv, interactive, newRegistry, newRunner
	t.Cleanup(func() {
		openEnv, interactive, newRegistry, newRunner = origEnv, origInteractive, origRegistry, origRunner
	})
	openEnv = func() (*fsys.Env, error) { return h.env, nil }
	interactive = func(*cobra.Command) bool { return false }
	newRegistry = func(config.Settings) registry.Source { return latest }
	newRunner = func(*cobra.Command) shell.Runner { return h.runner }
	return h
}

func (h *harness) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(h.env.FS, path, []byte(content), 0o644))
}

func (h *harness) run(args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetOut(&h.stdout)
	rootCmd.SetErr(&h.stderr)
	return rootCmd.ExecuteContext(context.Background())
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

const seededWorkspace = `packages:
  - packages/*
catalog:
  typescript: ^5.0.0
  vitest: ^1.0.0
  local: workspace:*
`

func TestNewCommand(t *testing.T) {
	h := newHarness(t, "/work")

	err := h.run("new", "acme", "--tools", "oxlint,vitest", "--hooks", "--install=false")
	require.NoError(t, err)
	assert.Contains(t, h.stdout.String(), "Created acme")
	assert.Contains(t, h.stdout.String(), "Next steps")

	m, err := pkgjson.Load(h.env.FS, "/work/acme/package.json")
	require.NoError(t, err)
	assert.Equal(t, "catalog:", m.DevDependencies()["oxlint"])
	pm, _ := m.String(pkgjson.KeyPackageManager)
	assert.Equal(t, "pnpm@9.12.0", pm)

	ok, _ := fsys.Exists(h.env.FS, "/work/acme/.husky/pre-commit")
	assert.True(t, ok)
	assert.Equal(t, []string{"git init --quiet"}, h.runner.Names())
}

func TestNewCommandRequiresName(t *testing.T) {
	h := newHarness(t, "/work")

	err := h.run("new")
	var verr *errs.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestNewCommandCancelledOnNonEmptyDir(t *testing.T) {
	h := newHarness(t, "/work")
	h.write(t, "/work/acme/keep.txt", "x")

	err := h.run("new", "acme", "--git=false", "--install=false")
	assert.Equal(t, errs.ExitCancelled, errs.ExitCode(err))

	err = h.run("new", "acme", "--git=false", "--install=false", "--yes")
	assert.NoError(t, err)
}

func TestCreatePackageCommand(t *testing.T) {
	h := newHarness(t, "/")
	h.write(t, "/repo/pnpm-workspace.yaml", seededWorkspace)
	h.write(t, "/repo/package.json", `{"name": "@acme/root", "packageManager": "pnpm@9.0.0"}`)

	err := h.run("create", "package", "utils", "--dep", "zod", "-C", "/repo/packages")
	require.NoError(t, err)

	m, err := pkgjson.Load(h.env.FS, "/repo/packages/utils/package.json")
	require.NoError(t, err)
	assert.Equal(t, "@acme/utils", m.Name())
	assert.Equal(t, "catalog:", m.Dependencies()["zod"])

	ws, err := workspace.Load(h.env.FS, "/repo/pnpm-workspace.yaml")
	require.NoError(t, err)
	assert.Equal(t, "^3.23.8", ws.Catalog()["zod"])
	assert.Equal(t, "^5.0.0", ws.Catalog()["typescript"])
}

func TestAddCommand(t *testing.T) {
	h := newHarness(t, "/proj")
	h.write(t, "/proj/package.json", `{"name": "proj"}`)

	require.NoError(t, h.run("add", "vitest"))
	m, err := pkgjson.Load(h.env.FS, "/proj/package.json")
	require.NoError(t, err)
	assert.Equal(t, "^2.1.0", m.DevDependencies()["vitest"])
	assert.Equal(t, "vitest run", m.Section(pkgjson.KeyScripts)["test"])

	err = h.run("add", "vitst")
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "vitest")
}

func TestCatalogUpdateCommand(t *testing.T) {
	h := newHarness(t, "/repo")
	h.write(t, "/repo/pnpm-workspace.yaml", seededWorkspace)

	require.NoError(t, h.run("catalog", "update", "--exclude", "typescript"))
	assert.Contains(t, h.stdout.String(), "Updated 1 entries")

	ws, err := workspace.Load(h.env.FS, "/repo/pnpm-workspace.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"typescript": "^5.0.0",
		"vitest":     "^2.1.0",
		"local":      "workspace:*",
	}, ws.Catalog())
}

func TestCatalogUpdateDryRun(t *testing.T) {
	h := newHarness(t, "/repo")
	h.write(t, "/repo/pnpm-workspace.yaml", seededWorkspace)

	require.NoError(t, h.run("catalog", "update", "--dry-run"))
	assert.Contains(t, h.stdout.String(), "Dry run")

	raw, err := util.ReadFile(h.env.FS, "/repo/pnpm-workspace.yaml")
	require.NoError(t, err)
	assert.Equal(t, seededWorkspace, string(raw))
}

func TestCatalogUpdateRejectsIncludeWithExclude(t *testing.T) {
	h := newHarness(t, "/repo")
	h.write(t, "/repo/pnpm-workspace.yaml", seededWorkspace)

	err := h.run("catalog", "update", "--exclude", "a", "--include", "b")
	assert.Error(t, err)
}

func TestCatalogList(t *testing.T) {
	h := newHarness(t, "/repo/packages/x")
	h.write(t, "/repo/pnpm-workspace.yaml", seededWorkspace+"catalogs:\n  legacy:\n    react: ^17.0.0\n")

	require.NoError(t, h.run("catalog", "list"))
	out := h.stdout.String()
	assert.Contains(t, out, "vitest")
	assert.Contains(t, out, "catalogs.legacy")
	assert.Contains(t, out, "^17.0.0")
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t, "/")

	require.NoError(t, h.run("config", "get", "registry"))
	assert.Equal(t, "https://registry.npmjs.org\n", h.stdout.String())

	require.NoError(t, h.run("config", "set", "concurrency", "4"))
	require.NoError(t, h.run("config", "get", "concurrency"))
	assert.Equal(t, "4\n", h.stdout.String())

	err := h.run("config", "set", "colour", "blue")
	var verr *errs.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDoctorCommand(t *testing.T) {
	h := newHarness(t, "/repo")
	h.write(t, "/repo/pnpm-workspace.yaml", seededWorkspace)
	h.write(t, "/repo/package.json", `{"name": "root", "packageManager": "pnpm@9.0.0"}`)

	require.NoError(t, h.run("doctor"))
	assert.Contains(t, h.stdout.String(), "typescript 5.6.2")
	assert.Contains(t, h.stdout.String(), "packageManager is pnpm 9.0.0")

	h.write(t, "/repo/pnpm-workspace.yaml", "packages: packages/*\n")
	err := h.run("doctor", "--offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doctor found")
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t, "/")
	buildVersion, buildCommit, buildDate = "1.2.3", "abc123", "2026-01-01"

	require.NoError(t, h.run("version", "--short"))
	assert.Equal(t, "1.2.3\n", h.stdout.String())

	require.NoError(t, h.run("version", "--json"))
	assert.Contains(t, h.stdout.String(), `"commit": "abc123"`)
}

func TestNotifyUpdate(t *testing.T) {
	h := newHarness(t, "/")
	newRegistry = func(config.Settings) registry.Source { return fakeRegistry{"monokit": "2.0.0"} }
	s := config.Settings{CacheTTL: time.Hour}

	var out bytes.Buffer
	assert.True(t, notifyUpdate(context.Background(), &out, h.env, s, "1.2.3"))
	assert.Contains(t, out.String(), "Update available: 1.2.3 -> 2.0.0")

	out.Reset()
	assert.False(t, notifyUpdate(context.Background(), &out, h.env, s, "2.0.0"))
	assert.Empty(t, out.String())

	newRegistry = func(config.Settings) registry.Source { return fakeRegistry{} }
	assert.True(t, notifyUpdate(context.Background(), &out, h.env, s, "1.0.0"), "served from the cache")
}
