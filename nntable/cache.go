package nntable

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/viant/nnview/index"
	"github.com/viant/nnview/knn"
)

// DefaultCacheSize is the number of built finders kept across connections.
const DefaultCacheSize = 16

// cache holds one finder per dataset and table options, shared across
// connections; the least recently used finder is evicted first.
var cache = struct {
	mu      sync.Mutex
	entries *lru.Cache[cacheKey, *cacheEntry]
}{entries: mustLRU(DefaultCacheSize)}

type cacheKey struct {
	dataset string
	kind    index.Kind
	policy  knn.Policy
}

// cacheEntry builds its finder at most once; concurrent callers wait for
// the first build.
type cacheEntry struct {
	mu     sync.Mutex
	finder *knn.Finder
}

func (e *cacheEntry) get(build func() (*knn.Finder, error)) (*knn.Finder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finder != nil {
		return e.finder, nil
	}
	finder, err := build()
	if err != nil {
		return nil, err
	}
	e.finder = finder
	return finder, nil
}

func mustLRU(size int) *lru.Cache[cacheKey, *cacheEntry] {
	c, err := lru.New[cacheKey, *cacheEntry](size)
	if err != nil {
		panic(err)
	}
	return c
}

// SetCacheSize replaces the finder cache with one holding size entries
// (DefaultCacheSize when size < 1). Cached finders are dropped.
func SetCacheSize(size int) {
	if size < 1 {
		size = DefaultCacheSize
	}
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.entries = mustLRU(size)
}

func entryFor(key cacheKey) *cacheEntry {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if e, ok := cache.entries.Get(key); ok {
		return e
	}
	e := &cacheEntry{}
	cache.entries.Add(key, e)
	return e
}

func finderFor(ctx context.Context, dataset string, kind index.Kind, policy knn.Policy) (*knn.Finder, error) {
	return entryFor(cacheKey{dataset: dataset, kind: kind, policy: policy}).get(func() (*knn.Finder, error) {
		store, err := currentSource()
		if err != nil {
			return nil, err
		}
		set, err := store.LoadPoints(ctx, dataset)
		if err != nil {
			return nil, err
		}
		return knn.New(set, knn.WithIndex(kind), knn.WithPolicy(policy))
	})
}

// Invalidate drops cached finders of dataset, or all of them when dataset
// is empty, and returns how many were dropped.
func Invalidate(dataset string) int {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	count := 0
	for _, key := range cache.entries.Keys() {
		if dataset == "" || key.dataset == dataset {
			if cache.entries.Remove(key) {
				count++
			}
		}
	}
	return count
}
