package scaffold

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/pkgjson"
	"github.com/monokit-dev/monokit/internal/resolve"
	"github.com/monokit-dev/monokit/internal/shell"
	"github.com/monokit-dev/monokit/internal/structfile"
	"github.com/monokit-dev/monokit/internal/workspace"
)

// ToolOptions are the answers behind "monokit add".
type ToolOptions struct {
	Tools []string
	// Dir is where the search for package.json starts. Empty means the
	// working directory.
	Dir     string
	Catalog *bool
	Install bool
}

// AddTools configures tools in the nearest package.
func AddTools(ctx context.Context, deps Deps, opts ToolOptions) (*Result, error) {
	deps = deps.withDefaults()
	selected, err := LookupTools(opts.Tools)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, errs.Invalid("tools", "", "name at least one tool")
	}

	env := deps.Env
	if opts.Dir != "" {
		env = env.WithCwd(opts.Dir)
	}
	manifestPath, err := structfile.FindUp(env, structfile.Query{Name: pkgjson.FileName, Type: structfile.File, ExcludeDirs: ExcludedDirs})
	if err != nil {
		return nil, fmt.Errorf("locating package.json: %w", err)
	}
	pkgDir := filepath.Dir(manifestPath)
	res := &Result{Dir: pkgDir}

	// The workspace file is optional here: a standalone package has none.
	wsPath, err := structfile.FindUp(env.WithCwd(pkgDir), structfile.Query{Name: workspace.FileName, Type: structfile.File, ExcludeDirs: ExcludedDirs})
	var notFound *errs.NotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}
	useCatalog := false
	if wsPath != "" {
		ws, err := workspace.Load(deps.Env.FS, wsPath)
		if err != nil {
			return nil, err
		}
		useCatalog = ws.HasCatalog(workspace.Main)
	}
	if opts.Catalog != nil {
		useCatalog = *opts.Catalog && wsPath != ""
		if *opts.Catalog && wsPath == "" {
			res.warn("no %s found; writing versions into package.json instead", workspace.FileName)
		}
	}

	set, err := deps.resolve(ctx, toolRequests(selected), resolve.Options{UseCatalog: useCatalog, SkipTypeScript: true})
	if err != nil {
		return nil, err
	}
	res.Dependencies = set

	name, _, _ := structfile.LookupString(deps.Env.FS, manifestPath, "$.name")
	data := map[string]any{
		"name":   name,
		"tools":  selected,
		"tasks":  toolScripts(selected),
		"isRoot": wsPath != "" && filepath.Dir(wsPath) == pkgDir,
	}

	var p Pipeline
	p.Add("render tool configs", func(context.Context) error {
		return deps.renderTools(selected, pkgDir, data, res)
	})
	p.Add("merge package.json", func(context.Context) error {
		return deps.mergeManifest(manifestPath, func(m *pkgjson.Manifest) error {
			if _, err := m.MergeScripts(toolScripts(selected)); err != nil {
				return err
			}
			_, err := resolve.MergeIntoManifest(m, set)
			return err
		})
	})
	if useCatalog && len(set.Catalog) > 0 {
		p.Add("update pnpm-workspace.yaml", func(context.Context) error {
			return deps.mergeWorkspace(wsPath, set, nil, res)
		})
	}
	err = p.Run(ctx)
	res.Steps = p.Completed()
	if err != nil {
		return res, err
	}

	if opts.Install {
		root := pkgDir
		if wsPath != "" {
			root = filepath.Dir(wsPath)
		}
		pm := packageManagerAt(deps, filepath.Join(root, pkgjson.FileName))
		deps.post(ctx, res, "install", shell.Command{Name: pm, Args: []string{"install"}, Dir: root})
	}
	return res, nil
}
