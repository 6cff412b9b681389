package scaffold

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/fsys"
	"github.com/monokit-dev/monokit/internal/pkgjson"
	"github.com/monokit-dev/monokit/internal/prompt"
	"github.com/monokit-dev/monokit/internal/shell"
	"github.com/monokit-dev/monokit/internal/workspace"
)

type versions map[string]string

func (v versions) LatestVersion(_ context.Context, name string) (string, error) {
	if ver, ok := v[name]; ok {
		return ver, nil
	}
	return "", &errs.NetworkError{Package: name, Err: errors.New("package not found")}
}

var latest = versions{
	"oxlint":            "1.2.3",
	"vitest":            "2.0.0",
	"husky":             "9.1.0",
	"lint-staged":       "15.2.0",
	"typescript":        "5.6.2",
	"pnpm":              "9.1.0",
	"npm":               "10.8.0",
	"zod":               "3.23.8",
	"tsdown":            "0.5.0",
	"eslint":            "9.0.0",
	"@eslint/js":        "9.0.0",
	"typescript-eslint": "8.0.0",
	"@moonrepo/cli":     "1.30.0",
}

func testDeps(env *fsys.Env) (Deps, *shell.Recorder) {
	rec := &shell.Recorder{}
	return Deps{Env: env, Versions: latest, Runner: rec, Prompter: prompt.Static{}}, rec
}

func loadManifest(t *testing.T, env *fsys.Env, path string) *pkgjson.Manifest {
	t.Helper()
	m, err := pkgjson.Load(env.FS, path)
	require.NoError(t, err)
	return m
}

func assertExists(t *testing.T, env *fsys.Env, paths ...string) {
	t.Helper()
	for _, p := range paths {
		ok, err := fsys.Exists(env.FS, p)
		require.NoError(t, err)
		assert.True(t, ok, "expected %s to exist", p)
	}
}

func TestPipeline(t *testing.T) {
	var ran []string
	boom := errors.New("disk full")

	var p Pipeline
	p.Add("first", func(context.Context) error { ran = append(ran, "first"); return nil })
	p.Add("second", func(context.Context) error { return boom })
	p.Add("third", func(context.Context) error { ran = append(ran, "third"); return nil })

	err := p.Run(context.Background())

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "second", stepErr.Step)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first"}, ran)
	assert.Equal(t, []string{"first"}, p.Completed())
}

func TestPipelineStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var p Pipeline
	p.Add("write", func(context.Context) error { return nil })
	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLookupTools(t *testing.T) {
	got, err := LookupTools([]string{"vitest", "OXLINT", "vitest", ""})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "vitest", got[0].Name)
	assert.Equal(t, "oxlint", got[1].Name)

	_, err = LookupTools([]string{"eslnt"})
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "eslint")

	_, err = LookupTools([]string{"webpack"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "available")
}

func TestCreateMonorepo(t *testing.T) {
	env := fsys.Memory("/work")
	deps, rec := testDeps(env)

	res, err := CreateMonorepo(context.Background(), deps, MonorepoOptions{
		Name:    "acme",
		Catalog: true,
		Tools:   []string{"oxlint", "vitest"},
		Hooks:   true,
		Install: true,
		Git:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/work/acme", res.Dir)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{"merge root package.json", "write pnpm-workspace.yaml", "render tool configs"}, res.Steps)

	assertExists(t, env,
		"/work/acme/README.md",
		"/work/acme/.gitignore",
		"/work/acme/tsconfig.base.json",
		"/work/acme/packages/.gitkeep",
		"/work/acme/.oxlintrc.json",
		"/work/acme/vitest.config.ts",
		"/work/acme/.husky/pre-commit",
	)

	m := loadManifest(t, env, "/work/acme/package.json")
	assert.Equal(t, "acme", m.Name())
	pmName, pmVersion, ok := m.PackageManager()
	require.True(t, ok)
	assert.Equal(t, "pnpm", pmName)
	assert.Equal(t, "9.1.0", pmVersion.String())
	assert.Equal(t, map[string]string{
		"oxlint":      "catalog:",
		"vitest":      "catalog:",
		"husky":       "catalog:",
		"lint-staged": "catalog:",
		"typescript":  "catalog:",
	}, m.DevDependencies())
	assert.Equal(t, "husky", m.Section(pkgjson.KeyScripts)["prepare"])
	assert.Equal(t, "vitest run", m.Section(pkgjson.KeyScripts)["test"])
	assert.Equal(t, "oxlint", m.Section(pkgjson.KeyLintStaged)["*.{js,jsx,ts,tsx}"])

	ws, err := workspace.Load(env.FS, "/work/acme/pnpm-workspace.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"packages/*"}, ws.Packages())
	spec, ok := ws.Entry(workspace.Main, "oxlint")
	require.True(t, ok)
	assert.Equal(t, "^1.2.3", spec)

	hook, err := util.ReadFile(env.FS, "/work/acme/.husky/pre-commit")
	require.NoError(t, err)
	assert.Equal(t, "#!/usr/bin/env sh\npnpm exec lint-staged\n", string(hook))

	assert.Equal(t, []string{"git init --quiet", "pnpm install", "pnpm exec husky"}, rec.Names())
}

func TestCreateMonorepoIsIdempotent(t *testing.T) {
	env := fsys.Memory("/work")
	deps, _ := testDeps(env)
	deps.Prompter = prompt.Static{AssumeYes: true}
	opts := MonorepoOptions{Name: "acme", Catalog: true, Tools: []string{"vitest"}}

	_, err := CreateMonorepo(context.Background(), deps, opts)
	require.NoError(t, err)
	first, err := util.ReadFile(env.FS, "/work/acme/package.json")
	require.NoError(t, err)

	_, err = CreateMonorepo(context.Background(), deps, opts)
	require.NoError(t, err)
	second, err := util.ReadFile(env.FS, "/work/acme/package.json")
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestCreateMonorepoDeclinesNonEmptyDir(t *testing.T) {
	env := fsys.Memory("/work")
	require.NoError(t, util.WriteFile(env.FS, "/work/acme/notes.txt", []byte("x"), 0o644))
	deps, _ := testDeps(env)

	_, err := CreateMonorepo(context.Background(), deps, MonorepoOptions{Name: "acme"})
	assert.True(t, errs.IsCancelled(err))
	ok, _ := fsys.Exists(env.FS, "/work/acme/package.json")
	assert.False(t, ok)
}

func TestCreateMonorepoRejectsBadInput(t *testing.T) {
	env := fsys.Memory("/work")
	deps, _ := testDeps(env)
	var verr *errs.ValidationError

	_, err := CreateMonorepo(context.Background(), deps, MonorepoOptions{Name: "Bad Name"})
	assert.ErrorAs(t, err, &verr)

	_, err = CreateMonorepo(context.Background(), deps, MonorepoOptions{Name: "ok", PackageManager: "pip"})
	assert.ErrorAs(t, err, &verr)
}

func TestCreateMonorepoPostStepFailureWarns(t *testing.T) {
	env := fsys.Memory("/work")
	deps, rec := testDeps(env)
	rec.Fail = map[string]error{"git": fmt.Errorf("git is not installed")}

	res, err := CreateMonorepo(context.Background(), deps, MonorepoOptions{Name: "acme", Git: true})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "git init failed")
}

func TestCreateMonorepoWithoutPnpm(t *testing.T) {
	env := fsys.Memory("/work")
	deps, _ := testDeps(env)

	res, err := CreateMonorepo(context.Background(), deps, MonorepoOptions{Name: "acme", PackageManager: "npm", Catalog: true})
	require.NoError(t, err)
	assert.Contains(t, res.Warnings[0], "catalogs need pnpm")

	m := loadManifest(t, env, "/work/acme/package.json")
	assert.Equal(t, "^5.6.2", m.DevDependencies()["typescript"])
	assert.True(t, m.Has("workspaces"))
	ok, _ := fsys.Exists(env.FS, "/work/acme/pnpm-workspace.yaml")
	assert.False(t, ok)
}

func TestCreateMonorepoNetworkFailureWritesNothing(t *testing.T) {
	env := fsys.Memory("/work")
	deps, _ := testDeps(env)
	deps.Versions = versions{}

	_, err := CreateMonorepo(context.Background(), deps, MonorepoOptions{Name: "acme"})
	var nerr *errs.NetworkError
	require.ErrorAs(t, err, &nerr)
	ok, _ := fsys.Exists(env.FS, "/work/acme")
	assert.False(t, ok)
}

func seedWorkspace(t *testing.T, env *fsys.Env) {
	t.Helper()
	require.NoError(t, util.WriteFile(env.FS, "/repo/pnpm-workspace.yaml",
		[]byte("packages:\n  - packages/*\n# shared versions\ncatalog:\n  vitest: ^0.1.0\n"), 0o644))
	require.NoError(t, util.WriteFile(env.FS, "/repo/package.json",
		[]byte(`{"name": "@acme/root", "private": true, "packageManager": "pnpm@9.0.0"}`), 0o644))
}

func TestCreatePackage(t *testing.T) {
	env := fsys.Memory("/repo/packages")
	seedWorkspace(t, env)
	deps, rec := testDeps(env)

	res, err := CreatePackage(context.Background(), deps, PackageOptions{
		Name:            "utils",
		Description:     "Shared helpers",
		Dependencies:    []string{"zod"},
		DevDependencies: []string{"vitest"},
		Workspace:       []string{"@acme/core"},
		Tools:           []string{"tsdown"},
		Install:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/repo/packages/utils", res.Dir)
	assert.Equal(t, []string{"merge package.json", "render tool configs", "update pnpm-workspace.yaml"}, res.Steps)

	assertExists(t, env,
		"/repo/packages/utils/src/index.ts",
		"/repo/packages/utils/tsconfig.json",
		"/repo/packages/utils/tsdown.config.ts",
	)

	m := loadManifest(t, env, "/repo/packages/utils/package.json")
	assert.Equal(t, "@acme/utils", m.Name())
	desc, _ := m.String("description")
	assert.Equal(t, "Shared helpers", desc)
	assert.Equal(t, map[string]string{"zod": "catalog:", "@acme/core": "workspace:*"}, m.Dependencies())
	assert.Equal(t, map[string]string{"vitest": "catalog:", "tsdown": "catalog:", "typescript": "catalog:"}, m.DevDependencies())
	assert.Equal(t, "tsdown", m.Section(pkgjson.KeyScripts)["build"])

	ws, err := workspace.Load(env.FS, "/repo/pnpm-workspace.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"vitest":     "^0.1.0",
		"zod":        "^3.23.8",
		"tsdown":     "^0.5.0",
		"typescript": "^5.6.2",
	}, ws.Catalog())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "vitest is already in the catalog")

	raw, err := util.ReadFile(env.FS, "/repo/pnpm-workspace.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# shared versions")

	assert.Equal(t, []string{"pnpm install"}, rec.Names())
	assert.Equal(t, "/repo", rec.Commands[0].Dir)
}

func TestCreatePackageCatalogOverride(t *testing.T) {
	env := fsys.Memory("/repo")
	seedWorkspace(t, env)
	deps, _ := testDeps(env)
	off := false

	_, err := CreatePackage(context.Background(), deps, PackageOptions{Name: "@other/lib", Dependencies: []string{"zod"}, Catalog: &off})
	require.NoError(t, err)

	m := loadManifest(t, env, "/repo/packages/lib/package.json")
	assert.Equal(t, "@other/lib", m.Name())
	assert.Equal(t, "^3.23.8", m.Dependencies()["zod"])
}

func TestCreatePackageEscapesDescription(t *testing.T) {
	env := fsys.Memory("/repo")
	seedWorkspace(t, env)
	deps, _ := testDeps(env)
	description := "bell \a, delete \x7f, quote \" and tab \t"

	_, err := CreatePackage(context.Background(), deps, PackageOptions{Name: "lib", Description: description})
	require.NoError(t, err)

	m := loadManifest(t, env, "/repo/packages/lib/package.json")
	got, _ := m.String("description")
	assert.Equal(t, description, got)
}

func TestCreatePackageOutsideWorkspace(t *testing.T) {
	env := fsys.Memory("/tmp/somewhere")
	deps, _ := testDeps(env)

	_, err := CreatePackage(context.Background(), deps, PackageOptions{Name: "utils"})
	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Searched, "/tmp/somewhere")
}

func TestAddToolsStandalone(t *testing.T) {
	env := fsys.Memory("/proj/src")
	require.NoError(t, util.WriteFile(env.FS, "/proj/package.json",
		[]byte("{\n  \"name\": \"proj\",\n  \"scripts\": {\n    \"lint\": \"custom-lint\"\n  }\n}\n"), 0o644))
	deps, _ := testDeps(env)

	res, err := AddTools(context.Background(), deps, ToolOptions{Tools: []string{"eslint"}})
	require.NoError(t, err)
	assert.Equal(t, "/proj", res.Dir)
	assertExists(t, env, "/proj/eslint.config.js")

	m := loadManifest(t, env, "/proj/package.json")
	assert.Equal(t, map[string]string{
		"eslint":            "^9.0.0",
		"@eslint/js":        "^9.0.0",
		"typescript-eslint": "^8.0.0",
	}, m.DevDependencies())
	assert.Equal(t, "custom-lint", m.Section(pkgjson.KeyScripts)["lint"], "existing scripts are kept")
	assert.Equal(t, []string{"render tool configs", "merge package.json"}, res.Steps)
}

func TestAddToolsInWorkspace(t *testing.T) {
	env := fsys.Memory("/repo/packages/utils")
	seedWorkspace(t, env)
	require.NoError(t, util.WriteFile(env.FS, "/repo/packages/utils/package.json", []byte(`{"name": "@acme/utils"}`), 0o644))
	deps, _ := testDeps(env)

	res, err := AddTools(context.Background(), deps, ToolOptions{Tools: []string{"vitest", "moon"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"render tool configs", "merge package.json", "update pnpm-workspace.yaml"}, res.Steps)

	m := loadManifest(t, env, "/repo/packages/utils/package.json")
	assert.Equal(t, "catalog:", m.DevDependencies()["vitest"])

	ws, err := workspace.Load(env.FS, "/repo/pnpm-workspace.yaml")
	require.NoError(t, err)
	assert.Equal(t, "^0.1.0", ws.Catalog()["vitest"])
	assert.Equal(t, "^1.30.0", ws.Catalog()["@moonrepo/cli"])

	moon, err := util.ReadFile(env.FS, "/repo/packages/utils/moon.yml")
	require.NoError(t, err)
	assert.Contains(t, string(moon), "command: \"vitest run\"")
}

func TestAddToolsRequiresATool(t *testing.T) {
	env := fsys.Memory("/proj")
	deps, _ := testDeps(env)
	var verr *errs.ValidationError
	_, err := AddTools(context.Background(), deps, ToolOptions{})
	assert.ErrorAs(t, err, &verr)
}

func TestResultWarningsStayOutOfTheLog(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.InfoLevel)
	t.Cleanup(func() { log.Logger = orig })

	var res Result
	res.warn("catalog mode needs pnpm; using plain versions for %s", "npm")
	assert.Equal(t, []string{"catalog mode needs pnpm; using plain versions for npm"}, res.Warnings)
	assert.Empty(t, buf.String())
}
