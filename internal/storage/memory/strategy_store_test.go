package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
)

func sampleStrategy(name string) *domain.SavedStrategy {
	return &domain.SavedStrategy{
		Name:        name,
		Description: "test strategy",
		Logic: domain.StrategyLogic{
			Entry: domain.CondLeaf("close", domain.OpGT, "ema_20"),
			Exit:  domain.CondLeaf("close", domain.OpLT, "ema_20"),
		},
	}
}

func TestStrategyStore_InsertAndGet(t *testing.T) {
	store := NewStrategyStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleStrategy("momentum")))

	got, err := store.GetByName(ctx, "momentum")
	require.NoError(t, err)
	require.Equal(t, "momentum", got.Name)
	require.NotNil(t, got.Logic.Entry)
}

func TestStrategyStore_InsertDuplicate(t *testing.T) {
	store := NewStrategyStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleStrategy("momentum")))
	err := store.Insert(ctx, sampleStrategy("momentum"))
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestStrategyStore_InsertInvalid(t *testing.T) {
	store := NewStrategyStore()
	ctx := context.Background()

	require.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	require.ErrorIs(t, store.Insert(ctx, sampleStrategy("")), storage.ErrInvalidInput)
}

func TestStrategyStore_GetReturnsCopy(t *testing.T) {
	store := NewStrategyStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleStrategy("momentum")))

	first, err := store.GetByName(ctx, "momentum")
	require.NoError(t, err)
	first.Description = "mutated"

	second, err := store.GetByName(ctx, "momentum")
	require.NoError(t, err)
	require.Equal(t, "test strategy", second.Description)
}

func TestStrategyStore_GetMissing(t *testing.T) {
	store := NewStrategyStore()

	_, err := store.GetByName(context.Background(), "nope")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStrategyStore_List(t *testing.T) {
	store := NewStrategyStore()
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
	store := NewStrategyStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleStrategy("momentum")))
	require.NoError(t, store.Delete(ctx, "momentum"))

	_, err := store.GetByName(ctx, "momentum")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, store.Delete(ctx, "momentum"), storage.ErrNotFound)
}
