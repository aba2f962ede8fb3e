package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/printprice/internal/db/dbtest"
	"github.com/Simplici0/printprice/internal/pricing"
)

func TestDraft_PrecedenceAndTransientReset(t *testing.T) {
	synced := Bag{"markup": "40", "tax_rate": "10", "material_cost_per_kg": "900"}
	local := Bag{"markup": "65", "name": "ignored", "material_grams": "300"}

	in := Draft(synced, local)

	assert.Equal(t, pricing.Number("65"), in.Markup, "local overrides synced")
	assert.Equal(t, pricing.Number("10"), in.TaxRate, "synced overrides defaults")
	assert.Equal(t, pricing.Number("900"), in.MaterialCostPerKg)
	assert.Equal(t, pricing.Number("20000"), in.MachineCost, "defaults fill gaps")
	assert.Equal(t, "", in.Name)
	assert.Equal(t, pricing.Number("0"), in.MaterialGrams)
	assert.Equal(t, pricing.Number("1"), in.Quantity)
}

func TestExtract_OnlyPersistentFields(t *testing.T) {
	in := Defaults()
	in.Name = "Dragon"
	in.MaterialGrams = "250"
	in.FeesEnabled = false
	in.Markup = "70"

	bag := Extract(in)

	assert.Len(t, bag, len(Keys()))
	assert.Equal(t, "70", bag["markup"])
	assert.Equal(t, "false", bag["fees_enabled"])
	assert.NotContains(t, bag, "name")
	assert.NotContains(t, bag, "material_grams")

	restored := Draft(bag)
	assert.False(t, restored.FeesEnabled)
	assert.Equal(t, pricing.Number("70"), restored.Markup)
}

func TestResetTransient(t *testing.T) {
	in := Defaults()
	in.Name = "Vase"
	in.Notes = "matte"
	in.Quantity = "12"
	in.PrintHours = "4"
	in.DryingSameAsPrint = true
	in.Extras = []pricing.Extra{{Label: "insert", Price: "3"}}

	out := ResetTransient(in)

	assert.Equal(t, "", out.Name)
	assert.Equal(t, "", out.Notes)
	assert.Equal(t, pricing.Number("1"), out.Quantity)
	assert.Equal(t, pricing.Number("0"), out.PrintHours)
	assert.False(t, out.DryingSameAsPrint)
	assert.Empty(t, out.Extras)
}

func TestSQLiteStore_SaveAndLoadByScope(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)

	local := NewSQLiteStore(database, ScopeLocal)
	global := NewSQLiteStore(database, ScopeGlobal)

	require.NoError(t, local.Save(ctx, Bag{"markup": "55", "bogus": "x"}))
	require.NoError(t, local.Save(ctx, Bag{"markup": "60", "tax_rate": "12"}))
	require.NoError(t, global.Save(ctx, Bag{"markup": "30"}))

	bag, err := local.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Bag{"markup": "60", "tax_rate": "12"}, bag)

	bag, err = global.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Bag{"markup": "30"}, bag)
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ""), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.Save(ctx, Bag{"commission_percent": "8", "notes": "dropped"}))

	assert.Equal(t, "8", mr.HGet("settings:global", "commission_percent"))
	assert.Equal(t, "", mr.HGet("settings:global", "notes"))

	bag, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Bag{"commission_percent": "8"}, bag)
}

type failingStore struct{}

func (failingStore) Load(context.Context) (Bag, error) { return nil, errors.New("offline") }
func (failingStore) Save(context.Context, Bag) error   { return errors.New("offline") }

func TestLayers_DraftAndPublish(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	synced, _ := newRedisStore(t)
	layers := Layers{Synced: synced, Local: NewSQLiteStore(database, ScopeLocal), Logger: zerolog.Nop()}

	published := Defaults()
	published.Markup = "45"
	published.TaxRate = "5"
	require.NoError(t, layers.Publish(ctx, published))

	local := Defaults()
	local.Markup = "80"
	local.TaxRate = "5"
	require.NoError(t, layers.SaveLocal(ctx, local))

	draft, err := layers.Draft(ctx)
	require.NoError(t, err)
	assert.Equal(t, pricing.Number("80"), draft.Markup)
	assert.Equal(t, pricing.Number("5"), draft.TaxRate)
}

func TestLayers_UnavailableSyncedStoreFallsBack(t *testing.T) {
	ctx := context.Background()
	layers := Layers{Synced: failingStore{}, Logger: zerolog.Nop()}

	draft, err := layers.Draft(ctx)
	require.NoError(t, err)
	assert.Equal(t, Defaults().Markup, draft.Markup)

	err = Layers{}.Publish(ctx, Defaults())
	require.ErrorIs(t, err, ErrNoSyncedStore)
}
