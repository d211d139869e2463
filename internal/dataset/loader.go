package dataset

import (
	"container/list"
	"context"
	"sync"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/observability"
)

// defaultCacheSize is how many (symbol, interval) datasets the loader
// keeps in memory before evicting the least recently used one.
const defaultCacheSize = 16

// Loader serves bar sequences from a CSV catalog through an explicit
// LRU cache. The cache is an owned component with a defined eviction
// policy, not ambient global state: one Loader, one cache.
type Loader struct {
	catalog *Catalog

	mu      sync.Mutex
	maxSize int
	order   *list.List               // front = most recently used
	entries map[string]*list.Element // key -> element holding *cacheEntry
}

type cacheEntry struct {
	key  string
	bars []domain.Bar
}

// NewLoader creates a Loader over the catalog with the default cache
// size.
func NewLoader(catalog *Catalog) *Loader {
	return NewLoaderSize(catalog, defaultCacheSize)
}

// NewLoaderSize creates a Loader with an explicit cache capacity.
// A capacity below 1 disables caching.
func NewLoaderSize(catalog *Catalog, maxSize int) *Loader {
	return &Loader{
		catalog: catalog,
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Bars returns the bar sequence for a symbol and interval, loading and
// caching the CSV on first use. The returned slice is shared: callers
// must treat it as immutable (indicator enrichment copies).
func (l *Loader) Bars(ctx context.Context, symbol, interval string) ([]domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := symbol + "_" + interval
	if bars, ok := l.get(key); ok {
		observability.RecordDatasetLoad("hit")
		return bars, nil
	}

	path, err := l.catalog.Resolve(symbol, interval)
	if err != nil {
		observability.RecordDatasetLoad("error")
		return nil, err
	}
	bars, err := LoadFile(path)
	if err != nil {
		observability.RecordDatasetLoad("error")
		return nil, err
	}

	l.put(key, bars)
	observability.RecordDatasetLoad("miss")
	return bars, nil
}

func (l *Loader) get(key string) ([]domain.Bar, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	elem, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	l.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).bars, true
}

func (l *Loader) put(key string, bars []domain.Bar) {
	if l.maxSize < 1 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if elem, ok := l.entries[key]; ok {
		l.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).bars = bars
		return
	}

	l.entries[key] = l.order.PushFront(&cacheEntry{key: key, bars: bars})
	for l.order.Len() > l.maxSize {
		oldest := l.order.Back()
		l.order.Remove(oldest)
		delete(l.entries, oldest.Value.(*cacheEntry).key)
	}
	observability.UpdateDatasetCacheSize(l.order.Len())
}

// ListDatasets enumerates the catalog's datasets. Satisfies the same
// listing shape as the bar stores so the API can serve either.
func (l *Loader) ListDatasets(ctx context.Context) ([]domain.DatasetInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.catalog.List()
}

// CacheLen reports how many datasets are currently cached.
func (l *Loader) CacheLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}
