package scaffold

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/pathutil"
	"github.com/monokit-dev/monokit/internal/pkgjson"
	"github.com/monokit-dev/monokit/internal/render"
	"github.com/monokit-dev/monokit/internal/resolve"
	"github.com/monokit-dev/monokit/internal/shell"
	"github.com/monokit-dev/monokit/internal/workspace"
)

// PackageManagers lists the supported package managers.
var PackageManagers = []string{"pnpm", "npm", "yarn", "bun"}

// DefaultPackagesGlob is where workspace packages live.
const DefaultPackagesGlob = "packages/*"

// MonorepoOptions are the answers behind "monokit new".
type MonorepoOptions struct {
	Name string
	// Dir is the parent directory; the repo is created in Dir/<name>.
	// Empty means the working directory.
	Dir            string
	PackageManager string
	Catalog        bool
	Tools          []string
	Hooks          bool
	Install        bool
	Git            bool
}

// CreateMonorepo generates a new monorepo root.
func CreateMonorepo(ctx context.Context, deps Deps, opts MonorepoOptions) (*Result, error) {
	deps = deps.withDefaults()
	if err := pathutil.ValidatePackageName(opts.Name); err != nil {
		return nil, err
	}
	pm := opts.PackageManager
	if pm == "" {
		pm = PNPM
	}
	if !slices.Contains(PackageManagers, pm) {
		return nil, errs.Invalid("package manager", pm, "must be one of "+strings.Join(PackageManagers, ", "))
	}
	selected, err := LookupTools(opts.Tools)
	if err != nil {
		return nil, err
	}

	target := deps.Env.Abs(filepath.Join(opts.Dir, pathutil.DirName(opts.Name)))
	if err := deps.gateDir(target); err != nil {
		return nil, err
	}

	res := &Result{Dir: target}
	useCatalog := opts.Catalog
	if useCatalog && pm != PNPM {
		res.warn("catalogs need pnpm; writing versions into package.json instead")
		useCatalog = false
	}

	reqs := toolRequests(selected)
	staged := lintStaged(selected)
	if opts.Hooks {
		reqs = append(reqs,
			resolve.PackageRequest{Name: "husky", Dev: true, CatalogEligible: true},
			resolve.PackageRequest{Name: "lint-staged", Dev: true, CatalogEligible: true},
		)
		if len(staged) == 0 {
			res.warn("no linter selected; the pre-commit hook has nothing to run until lint-staged is configured")
		}
	}
	set, err := deps.resolve(ctx, reqs, resolve.Options{UseCatalog: useCatalog})
	if err != nil {
		return nil, err
	}
	res.Dependencies = set

	pmField := ""
	if pm != "bun" {
		if v, err := deps.Versions.LatestVersion(ctx, pm); err != nil {
			res.warn("could not look up the latest %s: %v", pm, err)
		} else {
			pmField = pm + "@" + v
		}
	}

	data := map[string]any{
		"name":           opts.Name,
		"packageManager": pm,
		"catalog":        useCatalog,
		"tools":          selected,
		"tasks":          toolScripts(selected),
		"hooks":          opts.Hooks,
		"isRoot":         true,
		"year":           deps.Now().Year(),
	}
	out, err := deps.renderer().RenderTree(deps.Templates, setMonorepo, target, data, render.Options{OnDecline: render.DeclineSkip})
	res.add(out)
	if err != nil {
		return res, fmt.Errorf("rendering the monorepo skeleton: %w", err)
	}

	var p Pipeline
	p.Add("merge root package.json", func(context.Context) error {
		return deps.mergeManifest(filepath.Join(target, pkgjson.FileName), func(m *pkgjson.Manifest) error {
			fields := []field{
				{pkgjson.KeyName, opts.Name},
				{"version", "0.0.0"},
				{"private", true},
				{"type", "module"},
			}
			if pmField != "" {
				fields = append(fields, field{pkgjson.KeyPackageManager, pmField})
			}
			if err := setIfAbsent(m, fields); err != nil {
				return err
			}
			scripts := toolScripts(selected)
			if opts.Hooks {
				scripts["prepare"] = "husky"
			}
			if _, err := m.MergeScripts(scripts); err != nil {
				return err
			}
			if _, err := resolve.MergeIntoManifest(m, set); err != nil {
				return err
			}
			if opts.Hooks {
				if _, err := m.MergeSection(pkgjson.KeyLintStaged, staged); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if pm == PNPM {
		p.Add("write pnpm-workspace.yaml", func(context.Context) error {
			return deps.mergeWorkspace(filepath.Join(target, workspace.FileName), set, []string{DefaultPackagesGlob}, res)
		})
	} else {
		p.Add("add workspaces to package.json", func(context.Context) error {
			return deps.mergeManifest(filepath.Join(target, pkgjson.FileName), func(m *pkgjson.Manifest) error {
				_, err := m.SetIfAbsent("workspaces", []string{DefaultPackagesGlob})
				return err
			})
		})
	}
	p.Add("render tool configs", func(context.Context) error {
		if err := deps.renderTools(selected, target, data, res); err != nil {
			return err
		}
		if !opts.Hooks {
			return nil
		}
		out, err := deps.renderer().RenderTree(deps.Templates, setHooks, target, data, render.Options{OnDecline: render.DeclineSkip})
		res.add(out)
		return err
	})
	err = p.Run(ctx)
	res.Steps = p.Completed()
	if err != nil {
		return res, err
	}

	if opts.Git {
		deps.post(ctx, res, "git init", shell.Command{Name: "git", Args: []string{"init", "--quiet"}, Dir: target})
	}
	if opts.Install {
		deps.post(ctx, res, "install", shell.Command{Name: pm, Args: []string{"install"}, Dir: target})
		if opts.Hooks && opts.Git {
			deps.post(ctx, res, "hook setup", shell.Command{Name: pm, Args: execArgs(pm, "husky"), Dir: target})
		}
	}
	return res, nil
}

type field struct {
	key string
	val any
}

func setIfAbsent(m *pkgjson.Manifest, fields []field) error {
	for _, f := range fields {
		if _, err := m.SetIfAbsent(f.key, f.val); err != nil {
			return err
		}
	}
	return nil
}

// execArgs runs a locally installed binary through the package manager.
func execArgs(pm string, bin ...string) []string {
	switch pm {
	case "npm":
		return append([]string{"exec", "--"}, bin...)
	case "yarn", "bun":
		return append([]string{"run"}, bin...)
	default:
		return append([]string{"exec"}, bin...)
	}
}
