package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog/log"

	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/fsys"
	"github.com/monokit-dev/monokit/internal/prompt"
)

// DefaultSuffix marks template files.
const DefaultSuffix = ".j2"

// DeclinePolicy decides what happens when the user refuses to overwrite an
// existing file.
type DeclinePolicy int

const (
	// DeclineAbort stops the whole batch with errs.ErrCancelled. Files
	// written before the refusal stay on disk.
	DeclineAbort DeclinePolicy = iota
	// DeclineSkip leaves the file alone and continues with the next one.
	DeclineSkip
)

// Options controls a render call. The zero value keeps the template
// directory structure, asks before overwriting and aborts on refusal.
type Options struct {
	// Suffix marks template files; it is stripped from output names.
	Suffix string
	// Flatten writes every file directly into the output directory instead
	// of keeping its relative subdirectory.
	Flatten bool
	// Overwrite replaces existing files without asking.
	Overwrite bool
	// OnDecline applies when the overwrite confirmation is refused.
	OnDecline DeclinePolicy
	// IncludeRoot is a directory in the source whose templates are parsed
	// as partials, usable with {{ template "name.j2" . }}. Files under it
	// are not rendered on their own.
	IncludeRoot string
}

func (o Options) suffix() string {
	if o.Suffix == "" {
		return DefaultSuffix
	}
	return o.Suffix
}

// Result lists the files a call wrote and the ones it left alone.
type Result struct {
	Files   []string
	Skipped []string
}

// Renderer writes rendered templates to a filesystem.
type Renderer struct {
	fs       billy.Filesystem
	prompter prompt.Prompter
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithPrompter sets the prompter used for overwrite confirmations.
func WithPrompter(p prompt.Prompter) RendererOption {
	return func(r *Renderer) {
		r.prompter = p
	}
}

// New returns a Renderer writing to dst. Without a prompter every
// overwrite confirmation is refused.
func New(dst billy.Filesystem, opts ...RendererOption) *Renderer {
	r := &Renderer{fs: dst, prompter: prompt.Static{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type task struct {
	template string
	target   string
	body     []byte
}

// RenderTree renders every template under templatesDir in src into
// outputDir.
func (r *Renderer) RenderTree(src fs.FS, templatesDir, outputDir string, data any, opts Options) (*Result, error) {
	suffix := opts.suffix()
	sub, err := fs.Sub(src, templatesDir)
	if err != nil {
		return nil, fmt.Errorf("opening template directory %s: %w", templatesDir, err)
	}
	matches, err := doublestar.Glob(sub, "**/*"+suffix, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("listing templates in %s: %w", templatesDir, err)
	}
	slices.Sort(matches)

	base, err := partials(src, opts.IncludeRoot, suffix)
	if err != nil {
		return nil, err
	}

	var tasks []task
	seen := map[string]string{}
	for _, rel := range matches {
		full := path.Join(templatesDir, rel)
		if opts.IncludeRoot != "" && strings.HasPrefix(full, path.Clean(opts.IncludeRoot)+"/") {
			continue
		}
		outRel := strings.TrimSuffix(rel, suffix)
		if opts.Flatten {
			outRel = path.Base(outRel)
		}
		target := filepath.Join(outputDir, filepath.FromSlash(outRel))
		if prev, dup := seen[target]; dup {
			return nil, errs.Invalid("template layout", templatesDir,
				fmt.Sprintf("%s and %s both render to %s", prev, full, target))
		}
		seen[target] = full

		body, err := fs.ReadFile(src, full)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", full, err)
		}
		out, err := execute(base, full, string(body), data)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task{template: full, target: target, body: out})
	}

	return r.write(tasks, opts)
}

// RenderOne renders a single template file from src into outputDir.
func (r *Renderer) RenderOne(src fs.FS, templateFile, outputDir string, data any, opts Options) (*Result, error) {
	suffix := opts.suffix()
	base, err := partials(src, opts.IncludeRoot, suffix)
	if err != nil {
		return nil, err
	}
	body, err := fs.ReadFile(src, templateFile)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", templateFile, err)
	}
	out, err := execute(base, templateFile, string(body), data)
	if err != nil {
		return nil, err
	}
	target := filepath.Join(outputDir, strings.TrimSuffix(path.Base(templateFile), suffix))
	return r.write([]task{{template: templateFile, target: target, body: out}}, opts)
}

func (r *Renderer) write(tasks []task, opts Options) (*Result, error) {
	res := &Result{}
	dirs := map[string]bool{}
	for _, t := range tasks {
		if !opts.Overwrite {
			ok, err := prompt.ConfirmIfFileExists(r.fs, r.prompter, t.target)
			if err != nil {
				return res, err
			}
			if !ok {
				if opts.OnDecline == DeclineAbort {
					return res, fmt.Errorf("overwriting %s: %w", t.target, errs.ErrCancelled)
				}
				log.Debug().Str("path", t.target).Msg("keeping existing file")
				res.Skipped = append(res.Skipped, t.target)
				continue
			}
		}

		dir := filepath.Dir(t.target)
		if !dirs[dir] {
			if err := r.fs.MkdirAll(dir, 0o755); err != nil {
				return res, errs.IO(err, "creating the directory '%s'", dir)
			}
			dirs[dir] = true
		}
		mode := fileMode(t.body)
		if err := util.WriteFile(r.fs, t.target, t.body, mode); err != nil {
			return res, errs.IO(err, "writing the rendered file at '%s'", t.target)
		}
		if mode&0o111 != 0 {
			if err := fsys.Chmod(r.fs, t.target, mode); err != nil {
				return res, errs.IO(err, "making '%s' executable", t.target)
			}
		}
		log.Debug().Str("template", t.template).Str("path", t.target).Msg("rendered")
		res.Files = append(res.Files, t.target)
	}
	return res, nil
}

// fileMode makes scripts with a shebang executable.
func fileMode(body []byte) fs.FileMode {
	if bytes.HasPrefix(body, []byte("#!")) {
		return 0o755
	}
	return 0o644
}

func partials(src fs.FS, root, suffix string) (*template.Template, error) {
	base := template.New("").Funcs(Funcs()).Option("missingkey=default")
	if root == "" {
		return base, nil
	}
	sub, err := fs.Sub(src, root)
	if err != nil {
		return nil, fmt.Errorf("opening include root %s: %w", root, err)
	}
	names, err := doublestar.Glob(sub, "**/*"+suffix, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("listing partials in %s: %w", root, err)
	}
	for _, name := range names {
		body, err := fs.ReadFile(sub, name)
		if err != nil {
			return nil, fmt.Errorf("reading partial %s: %w", name, err)
		}
		t, err := base.New(name).Parse(string(body))
		if err != nil {
			return nil, fmt.Errorf("parsing partial %s: %w", name, err)
		}
		blankMissing(t.Tree)
	}
	return base, nil
}

func execute(base *template.Template, name, body string, data any) ([]byte, error) {
	t, err := base.Clone()
	if err != nil {
		return nil, fmt.Errorf("preparing template %s: %w", name, err)
	}
	if _, err := t.New(name).Parse(body); err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	for _, tmpl := range t.Templates() {
		blankMissing(tmpl.Tree)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Text renders a template body against data without touching any
// filesystem.
func Text(name, body string, data any) (string, error) {
	out, err := execute(template.New("").Funcs(Funcs()).Option("missingkey=default"), name, body, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
