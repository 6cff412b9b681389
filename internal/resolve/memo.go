package resolve

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// VersionSource returns the latest published version of a package.
type VersionSource interface {
	LatestVersion(ctx context.Context, name string) (string, error)
}

// Memo wraps a VersionSource so each name is fetched at most once, even when
// concurrent callers ask for it at the same time. Failures are not cached.
type Memo struct {
	src   VersionSource
	group singleflight.Group

	mu       sync.Mutex
	versions map[string]string
}

// NewMemo returns a memoizing wrapper around src.
func NewMemo(src VersionSource) *Memo {
	if m, ok := src.(*Memo); ok {
		return m
	}
	return &Memo{src: src, versions: map[string]string{}}
}

// LatestVersion implements VersionSource.
func (m *Memo) LatestVersion(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	v, ok := m.versions[name]
	m.mu.Unlock()
	if ok {
		return v, nil
	}

	res, err, _ := m.group.Do(name, func() (any, error) {
		m.mu.Lock()
		if v, ok := m.versions[name]; ok {
			m.mu.Unlock()
			return v, nil
		}
		m.mu.Unlock()

		v, err := m.src.LatestVersion(ctx, name)
		if err != nil {
			return "", err
		}
		m.mu.Lock()
		m.versions[name] = v
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}
