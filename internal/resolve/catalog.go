package resolve

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/fsys"
	"github.com/monokit-dev/monokit/internal/pkgjson"
	"github.com/monokit-dev/monokit/internal/registry"
	"github.com/monokit-dev/monokit/internal/schema"
	"github.com/monokit-dev/monokit/internal/workspace"
)

// AllCatalogs selects every named catalog.
const AllCatalogs = "all"

// protocolPrefixes mark specs that do not come from the registry.
var protocolPrefixes = []string{"workspace:", "catalog:", "npm:", "link:", "file:", "git", "github:", "http:", "https:"}

// IsProtocolSpec reports whether spec points somewhere other than a
// registry version, e.g. "workspace:*" or "npm:other@1".
func IsProtocolSpec(spec string) bool {
	for _, p := range protocolPrefixes {
		if strings.HasPrefix(spec, p) {
			return true
		}
	}
	return false
}

// UpdateOptions controls UpdateCatalog.
//
// Include and Exclude filter which existing entries are refreshed and are
// mutually exclusive. Add names brand-new entries. Catalogs selects named
// catalogs: ["all"] means every one, an explicit list means only those, and
// an empty list means none. The main catalog is updated unless NoMainCatalog
// is set, in which case Add targets the selected named catalogs instead.
type UpdateOptions struct {
	Exclude       []string
	Include       []string
	Add           []string
	Catalogs      []string
	NoMainCatalog bool
	Concurrency   int
	DryRun        bool
}

// Change describes one catalog entry touched by an update.
type Change struct {
	Catalog string
	Name    string
	From    string
	To      string
}

// CatalogLabel names the catalog for display.
func (c Change) CatalogLabel() string {
	if c.Catalog == workspace.Main {
		return "catalog"
	}
	return "catalogs." + c.Catalog
}

// UpdateReport summarizes an update.
type UpdateReport struct {
	Path      string
	Updated   []Change
	Unchanged []Change
	Added     []Change
	Skipped   []Change
	Warnings  []string
	Written   bool
}

func (r *UpdateReport) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Debug().Msg(msg)
	r.Warnings = append(r.Warnings, msg)
}

// UpdateCatalog refreshes the catalogs in the workspace file at path and
// writes it back. Nothing is written when any lookup fails.
func UpdateCatalog(ctx context.Context, env *fsys.Env, src VersionSource, path string, opts UpdateOptions) (*UpdateReport, error) {
	if len(opts.Include) > 0 && len(opts.Exclude) > 0 {
		return nil, errs.Invalid("catalog filter", "", "include and exclude cannot be used together")
	}
	path = env.Abs(path)
	report := &UpdateReport{Path: path}

	file, err := workspace.Load(env.FS, path)
	if err != nil {
		return nil, err
	}
	if err := validate(file, path); err != nil {
		return nil, err
	}

	named := selectCatalogs(file, opts.Catalogs, report)
	var targets []string
	if !opts.NoMainCatalog {
		targets = append(targets, workspace.Main)
	}
	targets = append(targets, named...)

	addTargets := named
	if !opts.NoMainCatalog {
		addTargets = []string{workspace.Main}
	}
	if len(opts.Add) > 0 && len(addTargets) == 0 {
		report.warn("no catalog selected to add %s to", strings.Join(opts.Add, ", "))
	}

	wanted := func(name string) bool {
		if len(opts.Include) > 0 {
			return slices.Contains(opts.Include, name)
		}
		return !slices.Contains(opts.Exclude, name)
	}

	var names []string
	for _, catalog := range targets {
		for _, e := range file.Entries(catalog) {
			if wanted(e.Name) && !IsProtocolSpec(e.Spec) {
				names = append(names, e.Name)
			}
		}
	}
	for _, catalog := range addTargets {
		for _, name := range opts.Add {
			if _, exists := file.Entry(catalog, name); !exists {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	names = slices.Compact(names)

	versions, err := fetchAll(ctx, NewMemo(src), names, opts.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", path, err)
	}

	changed := false
	for _, catalog := range targets {
		for _, e := range file.Entries(catalog) {
			c := Change{Catalog: catalog, Name: e.Name, From: e.Spec, To: e.Spec}
			switch {
			case !wanted(e.Name):
				report.Unchanged = append(report.Unchanged, c)
			case IsProtocolSpec(e.Spec):
				report.Skipped = append(report.Skipped, c)
			default:
				spec, err := registry.Caret(versions[e.Name])
				if err != nil {
					return nil, &errs.NetworkError{Package: e.Name, Err: err}
				}
				c.To = spec
				if spec == e.Spec {
					report.Unchanged = append(report.Unchanged, c)
					continue
				}
				file.SetEntry(catalog, e.Name, spec)
				report.Updated = append(report.Updated, c)
				changed = true
			}
		}
	}

	for _, catalog := range addTargets {
		for _, name := range opts.Add {
			if existing, ok := file.Entry(catalog, name); ok {
				report.warn("%s already exists in %s at %s, not overwriting", name, Change{Catalog: catalog}.CatalogLabel(), existing)
				continue
			}
			spec, err := registry.Caret(versions[name])
			if err != nil {
				return nil, &errs.NetworkError{Package: name, Err: err}
			}
			file.AddEntry(catalog, name, spec)
			report.Added = append(report.Added, Change{Catalog: catalog, Name: name, To: spec})
			changed = true
		}
	}

	if !changed || opts.DryRun {
		return report, nil
	}
	if err := file.Save(env.FS, path); err != nil {
		return nil, err
	}
	report.Written = true
	return report, nil
}

func selectCatalogs(file *workspace.File, requested []string, report *UpdateReport) []string {
	if len(requested) == 1 && requested[0] == AllCatalogs {
		return file.CatalogNames()
	}
	var out []string
	for _, name := range requested {
		if !file.HasCatalog(name) || name == workspace.Main {
			report.warn("catalog %q does not exist in %s", name, report.Path)
			continue
		}
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func validate(file *workspace.File, path string) error {
	doc, err := file.Decode()
	if err != nil {
		return errs.IO(err, "decoding '%s'", path)
	}
	result, err := schema.Workspace.ValidateValue(doc)
	if err != nil {
		return err
	}
	return result.Err(path)
}

// MergeIntoManifest adds the set's dependencies to m without overwriting
// existing entries.
func MergeIntoManifest(m *pkgjson.Manifest, set *DependencySet) (bool, error) {
	return m.MergeDependencies(set.Dependencies, set.DevDependencies)
}

// MergeIntoWorkspace adds the set's catalog entries to the main catalog and
// returns the names that were already pinned there.
func MergeIntoWorkspace(f *workspace.File, set *DependencySet) (kept []string) {
	names := make([]string, 0, len(set.Catalog))
	for name := range set.Catalog {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if !f.AddEntry(workspace.Main, name, set.Catalog[name]) {
			kept = append(kept, name)
		}
	}
	return kept
}
