package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog/log"
)

const (
	// CacheFileName is the cache file inside the monokit home directory.
	CacheFileName = "registry-cache.json"
	// DefaultCacheMaxAge is how long a cached lookup stays fresh.
	DefaultCacheMaxAge = time.Hour
)

// CacheEntry is one cached lookup.
type CacheEntry struct {
	Version   string    `json:"version"`
	CheckedAt time.Time `json:"checked_at"`
}

// Cache stores latest-version lookups in a JSON file. It is safe for
// concurrent use.
type Cache struct {
	fs     billy.Filesystem
	path   string
	maxAge time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]CacheEntry
	dirty   bool
}

// LoadCache reads the cache file at path. A missing file yields an empty
// cache; a corrupted one is discarded with a warning.
func LoadCache(fsys billy.Filesystem, path string, maxAge time.Duration) (*Cache, error) {
	c := &Cache{
		fs:      fsys,
		path:    path,
		maxAge:  maxAge,
		now:     time.Now,
		entries: map[string]CacheEntry{},
	}
	data, err := util.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading registry cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ignoring corrupted registry cache")
		c.entries = map[string]CacheEntry{}
	}
	return c, nil
}

// IsStale reports whether e is older than maxAge at now.
func IsStale(e CacheEntry, maxAge time.Duration, now time.Time) bool {
	return now.Sub(e.CheckedAt) > maxAge
}

// Lookup returns a fresh cached version for name.
func (c *Cache) Lookup(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	if !ok || IsStale(e, c.maxAge, c.now()) {
		return "", false
	}
	return e.Version, true
}

// Store records a lookup result.
func (c *Cache) Store(name, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = CacheEntry{Version: version, CheckedAt: c.now()}
	c.dirty = true
}

// Save writes the cache back when it changed. Stale entries are dropped.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	now := c.now()
	for name, e := range c.entries {
		if IsStale(e, c.maxAge, now) {
			delete(c.entries, name)
		}
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry cache: %w", err)
	}
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := util.WriteFile(c.fs, c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing registry cache: %w", err)
	}
	c.dirty = false
	return nil
}

// WithCache serves lookups from c before falling back to src, storing
// every successful fallback.
func WithCache(src Source, c *Cache) Source {
	return &cachedSource{src: src, cache: c}
}

type cachedSource struct {
	src   Source
	cache *Cache
}

func (s *cachedSource) LatestVersion(ctx context.Context, name string) (string, error) {
	if v, ok := s.cache.Lookup(name); ok {
		log.Debug().Str("package", name).Str("version", v).Msg("registry cache hit")
		return v, nil
	}
	v, err := s.src.LatestVersion(ctx, name)
	if err != nil {
		return "", err
	}
	s.cache.Store(name, v)
	return v, nil
}
