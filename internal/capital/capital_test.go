package capital

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/printprice/internal/db/dbtest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(dbtest.Open(t))
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return store
}

func TestStore_CreateDefaultsAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.Create(ctx, Item{Name: "  Spare nozzles ", Price: 240})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Spare nozzles", created.Name)
	assert.Equal(t, 1, created.Quantity)
	assert.Equal(t, CategoryOther, created.Category)
	assert.Equal(t, "2024-06-01", created.PurchaseDate)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	printer, err := store.Create(ctx, Item{Name: "Printer", Price: 30000, Category: CategoryPrinter})
	require.NoError(t, err)
	filament, err := store.Create(ctx, Item{Name: "PLA x4", Price: 3400, Quantity: 4, Category: CategoryFilament})
	require.NoError(t, err)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, filament.ID, all[0].ID)
	assert.Equal(t, printer.ID, all[1].ID)

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, filament.ID, limited[0].ID)
}

func TestStore_UpdateKeepsCreatedAtAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.Create(ctx, Item{Name: "Build plate", Price: 900, PaidBy: "RB"})
	require.NoError(t, err)

	edit := created
	edit.Price = 1800
	edit.Quantity = 2
	edit.Category = CategoryParts
	edit.Remarks = "second plate"
	updated, err := store.Update(ctx, created.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1800.0, got.Price)
	assert.Equal(t, 2, got.Quantity)
	assert.Equal(t, CategoryParts, got.Category)
	assert.Equal(t, "RB", got.PaidBy)
	assert.Equal(t, "second plate", got.Remarks)

	_, err = store.Update(ctx, "missing", edit)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, created.ID))
	require.ErrorIs(t, store.Delete(ctx, created.ID), ErrNotFound)
}
