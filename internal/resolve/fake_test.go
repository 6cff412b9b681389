package resolve

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type fakeSource struct {
	versions map[string]string
	delay    time.Duration

	mu       sync.Mutex
	calls    map[string]int
	inflight atomic.Int32
	peak     atomic.Int32
}

func newFake(versions map[string]string) *fakeSource {
	return &fakeSource{versions: versions, calls: map[string]int{}}
}

func (f *fakeSource) LatestVersion(ctx context.Context, name string) (string, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	v, ok := f.versions[name]
	if !ok {
		return "", fmt.Errorf("package %s not found", name)
	}
	return v, nil
}

func (f *fakeSource) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}
