package storage

import (
	"context"

	"strategy-lab/internal/domain"
)

// BarStore provides access to OHLCV bar history, keyed by symbol and
// interval.
type BarStore interface {
	// InsertBulk appends bars for a symbol/interval pair. Fails the
	// entire batch on a duplicate (symbol, interval, timestamp).
	InsertBulk(ctx context.Context, symbol, interval string, bars []domain.Bar) error

	// Bars retrieves all bars for a symbol/interval pair, ordered by
	// timestamp ASC. Returns ErrNotFound when no bars exist.
	Bars(ctx context.Context, symbol, interval string) ([]domain.Bar, error)

	// ListDatasets enumerates the distinct (symbol, interval) pairs
	// with stored bars.
	ListDatasets(ctx context.Context) ([]domain.DatasetInfo, error)
}

// StrategyStore provides access to the saved strategy catalog.
type StrategyStore interface {
	// Insert adds a new strategy. Returns ErrDuplicateKey if the name
	// is already taken.
	Insert(ctx context.Context, s *domain.SavedStrategy) error

	// GetByName retrieves a strategy by name. Returns ErrNotFound if
	// it does not exist.
	GetByName(ctx context.Context, name string) (*domain.SavedStrategy, error)

	// List retrieves all strategies ordered by name ASC.
	List(ctx context.Context) ([]*domain.SavedStrategy, error)

	// Delete removes a strategy by name. Returns ErrNotFound if it
	// does not exist.
	Delete(ctx context.Context, name string) error
}
