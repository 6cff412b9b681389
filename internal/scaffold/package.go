package scaffold

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/monokit-dev/monokit/internal/fsys"
	"github.com/monokit-dev/monokit/internal/pathutil"
	"github.com/monokit-dev/monokit/internal/pkgjson"
	"github.com/monokit-dev/monokit/internal/render"
	"github.com/monokit-dev/monokit/internal/resolve"
	"github.com/monokit-dev/monokit/internal/shell"
	"github.com/monokit-dev/monokit/internal/structfile"
	"github.com/monokit-dev/monokit/internal/workspace"
)

// ExcludedDirs are never searched when looking for project roots.
var ExcludedDirs = []string{"node_modules", ".git"}

// PackageOptions are the answers behind "monokit create package".
type PackageOptions struct {
	// Name of the package. An unscoped name inherits the root package's
	// scope.
	Name        string
	Description string
	// Dependencies and DevDependencies are fetched from the registry.
	Dependencies    []string
	DevDependencies []string
	// Workspace names packages in the same workspace, linked as
	// "workspace:*".
	Workspace []string
	Tools     []string
	// Catalog overrides catalog mode. Nil follows the workspace file: catalog
	// mode is on when it already has a main catalog.
	Catalog *bool
	Install bool
}

// CreatePackage generates a new package inside the enclosing workspace.
func CreatePackage(ctx context.Context, deps Deps, opts PackageOptions) (*Result, error) {
	deps = deps.withDefaults()
	wsPath, err := structfile.FindUp(deps.Env, structfile.Query{Name: workspace.FileName, Type: structfile.File, ExcludeDirs: ExcludedDirs})
	if err != nil {
		return nil, fmt.Errorf("locating the workspace root: %w", err)
	}
	root := filepath.Dir(wsPath)

	rootManifest := filepath.Join(root, pkgjson.FileName)
	rootName, _, err := structfile.LookupString(deps.Env.FS, rootManifest, "$.name")
	if err != nil && !missing(deps, rootManifest) {
		return nil, err
	}
	name := opts.Name
	if scope, _ := pathutil.SplitScope(rootName); scope != "" {
		if s, _ := pathutil.SplitScope(name); s == "" {
			name = scope + "/" + name
		}
	}
	if err := pathutil.ValidatePackageName(name); err != nil {
		return nil, err
	}
	selected, err := LookupTools(opts.Tools)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.Load(deps.Env.FS, wsPath)
	if err != nil {
		return nil, err
	}
	useCatalog := ws.HasCatalog(workspace.Main)
	if opts.Catalog != nil {
		useCatalog = *opts.Catalog
	}
	pm := packageManagerAt(deps, rootManifest)

	target := filepath.Join(root, "packages", pathutil.DirName(name))
	if err := deps.gateDir(target); err != nil {
		return nil, err
	}
	res := &Result{Dir: target}

	var reqs []resolve.PackageRequest
	for _, n := range opts.Dependencies {
		reqs = append(reqs, resolve.PackageRequest{Name: n, CatalogEligible: true})
	}
	for _, n := range opts.DevDependencies {
		reqs = append(reqs, resolve.PackageRequest{Name: n, Dev: true, CatalogEligible: true})
	}
	for _, n := range opts.Workspace {
		reqs = append(reqs, resolve.PackageRequest{Name: n, WorkspaceLocal: true})
	}
	reqs = append(reqs, toolRequests(selected)...)
	set, err := deps.resolve(ctx, reqs, resolve.Options{UseCatalog: useCatalog})
	if err != nil {
		return nil, err
	}
	res.Dependencies = set

	scope, _ := pathutil.SplitScope(name)
	data := map[string]any{
		"name":           name,
		"dirName":        pathutil.DirName(name),
		"scope":          scope,
		"description":    opts.Description,
		"packageManager": pm,
		"tools":          selected,
		"tasks":          toolScripts(selected),
		"year":           deps.Now().Year(),
	}
	out, err := deps.renderer().RenderTree(deps.Templates, setPackage, target, data, render.Options{OnDecline: render.DeclineSkip})
	res.add(out)
	if err != nil {
		return res, fmt.Errorf("rendering package %s: %w", name, err)
	}

	var p Pipeline
	p.Add("merge package.json", func(context.Context) error {
		return deps.mergeManifest(filepath.Join(target, pkgjson.FileName), func(m *pkgjson.Manifest) error {
			if _, err := m.MergeScripts(toolScripts(selected)); err != nil {
				return err
			}
			_, err := resolve.MergeIntoManifest(m, set)
			return err
		})
	})
	p.Add("render tool configs", func(context.Context) error {
		return deps.renderTools(selected, target, data, res)
	})
	p.Add("update pnpm-workspace.yaml", func(context.Context) error {
		return deps.mergeWorkspace(wsPath, set, []string{DefaultPackagesGlob}, res)
	})
	err = p.Run(ctx)
	res.Steps = p.Completed()
	if err != nil {
		return res, err
	}

	if opts.Install {
		deps.post(ctx, res, "install", shell.Command{Name: pm, Args: []string{"install"}, Dir: root})
	}
	return res, nil
}

// packageManagerAt reads the packageManager field of the manifest at path,
// falling back to pnpm.
func packageManagerAt(deps Deps, manifest string) string {
	m, err := pkgjson.Load(deps.Env.FS, manifest)
	if err != nil {
		return PNPM
	}
	if name, _, ok := m.PackageManager(); ok {
		return name
	}
	return PNPM
}

func missing(deps Deps, path string) bool {
	ok, err := fsys.Exists(deps.Env.FS, path)
	return err == nil && !ok
}
