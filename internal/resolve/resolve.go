package resolve

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/monokit-dev/monokit/internal/errs"
	"github.com/monokit-dev/monokit/internal/registry"
)

const (
	// WorkspaceSpec is the version of a dependency on a package in the same
	// workspace.
	WorkspaceSpec = "workspace:*"
	// CatalogSpec is the version of a dependency pinned in the main catalog.
	CatalogSpec = "catalog:"
	// TypeScript is resolved alongside every request list.
	TypeScript = "typescript"
	// DefaultConcurrency caps simultaneous registry lookups.
	DefaultConcurrency = 8
)

// PackageRequest is one selected package.
type PackageRequest struct {
	Name            string
	Dev             bool
	CatalogEligible bool
	WorkspaceLocal  bool
}

// DependencySet is the result of resolution. A name is in at most one of
// Dependencies and DevDependencies. Catalog holds the real version of every
// entry whose value is CatalogSpec.
type DependencySet struct {
	Dependencies    map[string]string
	DevDependencies map[string]string
	Catalog         map[string]string
}

// NewDependencySet returns an empty set.
func NewDependencySet() *DependencySet {
	return &DependencySet{
		Dependencies:    map[string]string{},
		DevDependencies: map[string]string{},
		Catalog:         map[string]string{},
	}
}

// Names returns every dependency name, sorted.
func (s *DependencySet) Names() []string {
	names := slices.Collect(maps.Keys(s.Dependencies))
	names = append(names, slices.Collect(maps.Keys(s.DevDependencies))...)
	slices.Sort(names)
	return names
}

// Options controls Resolve.
type Options struct {
	UseCatalog     bool
	SkipTypeScript bool
	Concurrency    int
}

// Resolve fetches the latest version of every request that is not
// workspace-local and sorts the results into a DependencySet.
//
// Duplicate requests are merged: a package requested as both a runtime and a
// dev dependency becomes a runtime dependency.
func Resolve(ctx context.Context, src VersionSource, reqs []PackageRequest, opts Options) (*DependencySet, error) {
	merged, err := mergeRequests(reqs)
	if err != nil {
		return nil, err
	}
	if !opts.SkipTypeScript {
		if _, ok := merged[TypeScript]; !ok {
			merged[TypeScript] = PackageRequest{Name: TypeScript, Dev: true, CatalogEligible: true}
		}
	}

	var names []string
	for name, req := range merged {
		if !req.WorkspaceLocal {
			names = append(names, name)
		}
	}
	versions, err := fetchAll(ctx, NewMemo(src), names, opts.Concurrency)
	if err != nil {
		return nil, err
	}

	set := NewDependencySet()
	for name, req := range merged {
		target := set.Dependencies
		if req.Dev {
			target = set.DevDependencies
		}
		if req.WorkspaceLocal {
			target[name] = WorkspaceSpec
			continue
		}
		spec, err := registry.Caret(versions[name])
		if err != nil {
			return nil, &errs.NetworkError{Package: name, Err: err}
		}
		if opts.UseCatalog && req.CatalogEligible {
			target[name] = CatalogSpec
			set.Catalog[name] = spec
			continue
		}
		target[name] = spec
	}
	return set, nil
}

func mergeRequests(reqs []PackageRequest) (map[string]PackageRequest, error) {
	merged := make(map[string]PackageRequest, len(reqs))
	for _, r := range reqs {
		if r.Name == "" {
			return nil, errs.Invalid("package name", "", "must not be empty")
		}
		prev, ok := merged[r.Name]
		if !ok {
			merged[r.Name] = r
			continue
		}
		prev.Dev = prev.Dev && r.Dev
		prev.CatalogEligible = prev.CatalogEligible || r.CatalogEligible
		prev.WorkspaceLocal = prev.WorkspaceLocal || r.WorkspaceLocal
		merged[r.Name] = prev
	}
	return merged, nil
}

// fetchAll looks up every name concurrently. The first failure cancels the
// remaining lookups and is returned alone.
func fetchAll(ctx context.Context, src VersionSource, names []string, limit int) (map[string]string, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	versions := make(map[string]string, len(names))
	for _, name := range names {
		g.Go(func() error {
			v, err := src.LatestVersion(ctx, name)
			if err != nil {
				return err
			}
			log.Debug().Str("package", name).Str("version", v).Msg("resolved")
			mu.Lock()
			versions[name] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return versions, nil
}
