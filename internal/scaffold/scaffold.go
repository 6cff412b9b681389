package scaffold

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/fsys"
	"github.com/monokit-dev/monokit/internal/pkgjson"
	"github.com/monokit-dev/monokit/internal/prompt"
	"github.com/monokit-dev/monokit/internal/render"
	"github.com/monokit-dev/monokit/internal/resolve"
	"github.com/monokit-dev/monokit/internal/shell"
	"github.com/monokit-dev/monokit/internal/workspace"
)

// PNPM is the package manager with workspace catalogs.
const PNPM = "pnpm"

// Deps carries everything a flow touches outside its own inputs.
type Deps struct {
	Env       *fsys.Env
	Prompter  prompt.Prompter
	Versions  resolve.VersionSource
	Runner    shell.Runner
	Templates fs.FS
	// Concurrency caps simultaneous registry lookups.
	Concurrency int
	// Progress wraps slow work, such as version resolution, with a status
	// indicator. Nil runs the work directly.
	Progress func(ctx context.Context, title string, work func(context.Context) error) error
	// Now is used for the year in templates. Nil means time.Now.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Prompter == nil {
		d.Prompter = prompt.Static{}
	}
	if d.Templates == nil {
		d.Templates = Templates()
	}
	if d.Progress == nil {
		d.Progress = func(ctx context.Context, _ string, work func(context.Context) error) error {
			return work(ctx)
		}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func (d Deps) renderer() *render.Renderer {
	return render.New(d.Env.FS, render.WithPrompter(d.Prompter))
}

// Result summarizes a flow.
type Result struct {
	Dir          string
	Files        []string
	Skipped      []string
	Dependencies *resolve.DependencySet
	Steps        []string
	Warnings     []string
}

func (r *Result) add(res *render.Result) {
	if res == nil {
		return
	}
	r.Files = append(r.Files, res.Files...)
	r.Skipped = append(r.Skipped, res.Skipped...)
}

func (r *Result) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Debug().Msg(msg)
	r.Warnings = append(r.Warnings, msg)
}

func (d Deps) resolve(ctx context.Context, reqs []resolve.PackageRequest, opts resolve.Options) (*resolve.DependencySet, error) {
	var set *resolve.DependencySet
	opts.Concurrency = d.Concurrency
	err := d.Progress(ctx, "Resolving package versions", func(ctx context.Context) error {
		var err error
		set, err = resolve.Resolve(ctx, d.Versions, reqs, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("resolving dependencies: %w", err)
	}
	return set, nil
}

// gateDir asks before writing into a directory that already has content.
func (d Deps) gateDir(dir string) error {
	ok, err := prompt.ConfirmIfDirNotEmpty(d.Env.FS, d.Prompter, dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("writing into %s: %w", dir, errs.ErrCancelled)
	}
	return nil
}

// mergeManifest loads file (or starts a new manifest), applies edit and
// saves the result.
func (d Deps) mergeManifest(file string, edit func(m *pkgjson.Manifest) error) error {
	m := pkgjson.New()
	exists, err := fsys.Exists(d.Env.FS, file)
	if err != nil {
		return errs.IO(err, "checking '%s'", file)
	}
	if exists {
		if m, err = pkgjson.Load(d.Env.FS, file); err != nil {
			return err
		}
	}
	if err := edit(m); err != nil {
		return err
	}
	return m.Save(d.Env.FS, file)
}

// mergeWorkspace loads the workspace file (or starts a new one),
// adds the set's catalog entries and saves it.
func (d Deps) mergeWorkspace(file string, set *resolve.DependencySet, globs []string, res *Result) error {
	f := workspace.New()
	exists, err := fsys.Exists(d.Env.FS, file)
	if err != nil {
		return errs.IO(err, "checking '%s'", file)
	}
	if exists {
		if f, err = workspace.Load(d.Env.FS, file); err != nil {
			return err
		}
	}
	if len(globs) > 0 {
		f.AddPackages(globs...)
	}
	for _, name := range resolve.MergeIntoWorkspace(f, set) {
		res.warn("%s is already in the catalog; keeping the pinned version", name)
	}
	return f.Save(d.Env.FS, file)
}

// renderTools writes each tool's config file into dir.
func (d Deps) renderTools(selected []Tool, dir string, data map[string]any, res *Result) error {
	r := d.renderer()
	for _, t := range selected {
		out, err := r.RenderOne(d.Templates, path.Join(setTools, t.Config+render.DefaultSuffix), dir, data,
			render.Options{OnDecline: render.DeclineSkip})
		res.add(out)
		if err != nil {
			return fmt.Errorf("rendering %s config: %w", t.Name, err)
		}
	}
	return nil
}

// post runs an optional command; failures become warnings.
func (d Deps) post(ctx context.Context, res *Result, what string, cmd shell.Command) {
	if d.Runner == nil {
		res.warn("skipping %s: no command runner", what)
		return
	}
	if _, err := d.Runner.Run(ctx, cmd); err != nil {
		res.warn("%s failed: %v", what, err)
		return
	}
	log.Info().Str("cmd", cmd.String()).Msg(what + " done")
}
