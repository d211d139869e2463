package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"

	"strategy-lab/internal/dataset"
	"strategy-lab/internal/domain"
	"strategy-lab/internal/observability"
	"strategy-lab/internal/storage"
)

// Importer moves bars from CSV files into a bar store.
type Importer struct {
	store  storage.BarStore
	logger *log.Logger
}

// NewImporter creates an Importer writing to the given store.
func NewImporter(store storage.BarStore, logger *log.Logger) *Importer {
	return &Importer{store: store, logger: logger}
}

// ImportFile parses one CSV file and inserts its bars under the given
// symbol and interval. Duplicate timestamps already in the store are
// tolerated and skipped.
func (i *Importer) ImportFile(ctx context.Context, path, symbol, interval string) (int, error) {
	bars, err := dataset.LoadFile(path)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", path, err)
	}
	return i.importBars(ctx, symbol, interval, bars)
}

// ImportCatalog imports every dataset the catalog knows about.
func (i *Importer) ImportCatalog(ctx context.Context, catalog *dataset.Catalog) (int, error) {
	infos, err := catalog.List()
	if err != nil {
		return 0, fmt.Errorf("list datasets: %w", err)
	}

	total := 0
	for _, info := range infos {
		path, err := catalog.Resolve(info.Symbol, info.Interval)
		if err != nil {
			return total, fmt.Errorf("resolve %s %s: %w", info.Symbol, info.Interval, err)
		}
		n, err := i.ImportFile(ctx, path, info.Symbol, info.Interval)
		if err != nil {
			return total, err
		}
		i.logger.Printf("[import] %s %s: %d bars", info.Symbol, info.Interval, n)
		total += n
	}
	return total, nil
}

// Collect drains closed candles from the kline channel into the store
// until the channel closes or the context is canceled. Returns the
// number of bars stored.
func (i *Importer) Collect(ctx context.Context, klines <-chan ClosedKline) (int, error) {
	stored := 0
	for {
		select {
		case <-ctx.Done():
			return stored, ctx.Err()
		case ck, ok := <-klines:
			if !ok {
				return stored, nil
			}
			n, err := i.importBars(ctx, ck.Symbol, ck.Interval, []domain.Bar{ck.Bar})
			if err != nil {
				return stored, err
			}
			stored += n
		}
	}
}

func (i *Importer) importBars(ctx context.Context, symbol, interval string, bars []domain.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	err := i.store.InsertBulk(ctx, symbol, interval, bars)
	if err == nil {
		observability.RecordBarsImported(len(bars))
		return len(bars), nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		observability.RecordIngestionError("insert")
		return 0, fmt.Errorf("insert bars for %s %s: %w", symbol, interval, err)
	}

	// Bulk insert hit a duplicate, retry bar by bar so the fresh
	// rows still land.
	stored := 0
	for idx := range bars {
		err := i.store.InsertBulk(ctx, symbol, interval, bars[idx:idx+1])
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			observability.RecordIngestionError("insert")
			return stored, fmt.Errorf("insert bar for %s %s: %w", symbol, interval, err)
		}
		stored++
	}
	observability.RecordBarsImported(stored)
	return stored, nil
}
