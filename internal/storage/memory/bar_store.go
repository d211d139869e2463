package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu sync.RWMutex
	// series keyed by "symbol|interval", bars within keyed by unix ms
	series map[string]map[int64]*domain.Bar
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{series: make(map[string]map[int64]*domain.Bar)}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

func seriesKey(symbol, interval string) string {
	return symbol + "|" + interval
}

// InsertBulk appends bars for a symbol/interval pair. Fails the entire
// batch on a duplicate timestamp (existing or intra-batch).
func (s *BarStore) InsertBulk(_ context.Context, symbol, interval string, bars []domain.Bar) error {
	if symbol == "" || interval == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := seriesKey(symbol, interval)
	existing := s.series[key]

	batch := make(map[int64]struct{}, len(bars))
	for i := range bars {
		ts := bars[i].Timestamp.UnixMilli()
		if _, ok := existing[ts]; ok {
			return storage.ErrDuplicateKey
		}
		if _, ok := batch[ts]; ok {
			return storage.ErrDuplicateKey
		}
		batch[ts] = struct{}{}
	}

	if existing == nil {
		existing = make(map[int64]*domain.Bar, len(bars))
		s.series[key] = existing
	}
	for i := range bars {
		barCopy := bars[i]
		existing[bars[i].Timestamp.UnixMilli()] = &barCopy
	}
	return nil
}

// Bars retrieves all bars for a symbol/interval pair, ordered by
// timestamp ASC.
func (s *BarStore) Bars(_ context.Context, symbol, interval string) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.series[seriesKey(symbol, interval)]
	if !ok || len(series) == 0 {
		return nil, fmt.Errorf("%w: %s %s", storage.ErrNotFound, symbol, interval)
	}

	result := make([]domain.Bar, 0, len(series))
	for _, b := range series {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// ListDatasets enumerates the distinct (symbol, interval) pairs with
// stored bars.
func (s *BarStore) ListDatasets(_ context.Context) ([]domain.DatasetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.DatasetInfo, 0, len(s.series))
	for key, series := range s.series {
		if len(series) == 0 {
			continue
		}
		symbol, interval, ok := strings.Cut(key, "|")
		if !ok {
			continue
		}
		infos = append(infos, domain.DatasetInfo{Symbol: symbol, Interval: interval})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Symbol != infos[j].Symbol {
			return infos[i].Symbol < infos[j].Symbol
		}
		return infos[i].Interval < infos[j].Interval
	})
	return infos, nil
}
