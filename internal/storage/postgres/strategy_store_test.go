package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
	"strategy-lab/internal/storage/postgres"
)

func sampleStrategy(name string) *domain.SavedStrategy {
	return &domain.SavedStrategy{
		Name:        name,
		Description: "buy dips below the 20-period EMA",
		Logic: domain.StrategyLogic{
			Entry: domain.CondLeaf("close", domain.OpLT, "ema_20"),
			Exit:  domain.CondLeaf("close", domain.OpGT, "ema_20"),
		},
	}
}

func TestStrategyStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewStrategyStore(pool)
	ctx := context.Background()

	st := sampleStrategy("dip-buyer")
	st.Exec = &domain.ExecutionConfig{
		OrderType:     domain.OrderTypeMarket,
		QuantityPct:   50,
		FeeBps:        10,
		SlippageBps:   5,
		TakeProfitPct: 8,
	}
	require.NoError(t, store.Insert(ctx, st))

	got, err := store.GetByName(ctx, "dip-buyer")
	require.NoError(t, err)
	require.Equal(t, "dip-buyer", got.Name)
	require.Equal(t, st.Description, got.Description)
	require.False(t, got.CreatedAt.IsZero())

	// Logic round-trips through JSONB.
	require.NotNil(t, got.Logic.Entry)
	require.NotNil(t, got.Logic.Entry.Cond)
	require.Equal(t, "close", got.Logic.Entry.Cond.Left)
	require.Equal(t, domain.OpLT, got.Logic.Entry.Cond.Op)

	require.NotNil(t, got.Exec)
	require.Equal(t, 50.0, got.Exec.QuantityPct)
	require.Equal(t, 8.0, got.Exec.TakeProfitPct)
}

func TestStrategyStore_NilExecution(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewStrategyStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleStrategy("bare")))

	got, err := store.GetByName(ctx, "bare")
	require.NoError(t, err)
	require.Nil(t, got.Exec)
}

func TestStrategyStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewStrategyStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleStrategy("dip-buyer")))
	err := store.Insert(ctx, sampleStrategy("dip-buyer"))
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestStrategyStore_InsertInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewStrategyStore(pool)
	ctx := context.Background()

	require.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	require.ErrorIs(t, store.Insert(ctx, sampleStrategy("")), storage.ErrInvalidInput)
}

func TestStrategyStore_GetMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewStrategyStore(pool)

	_, err := store.GetByName(context.Background(), "nope")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStrategyStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewStrategyStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleStrategy("zeta")))
	require.NoError(t, store.Insert(ctx, sampleStrategy("alpha")))
	require.NoError(t, store.Insert(ctx, sampleStrategy("mid")))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "alpha", all[0].Name)
	require.Equal(t, "mid", all[1].Name)
	require.Equal(t, "zeta", all[2].Name)
}

func TestStrategyStore_Delete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewStrategyStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleStrategy("dip-buyer")))
	require.NoError(t, store.Delete(ctx, "dip-buyer"))

	_, err := store.GetByName(ctx, "dip-buyer")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, store.Delete(ctx, "dip-buyer"), storage.ErrNotFound)
}

func TestStrategyStore_PreservesCreatedAt(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewStrategyStore(pool)
	ctx := context.Background()

	st := sampleStrategy("dated")
	st.CreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, st))

	got, err := store.GetByName(ctx, "dated")
	require.NoError(t, err)
	require.True(t, got.CreatedAt.Equal(st.CreatedAt))
}
