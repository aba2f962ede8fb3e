package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/printprice/internal/db/dbtest"
	"github.com/Simplici0/printprice/internal/pricing"
)

func TestMaterials_CreateListUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	pla, err := store.CreateMaterial(ctx, Material{Name: "  PLA Matte ", CostPerKg: 900, Notes: "black"})
	require.NoError(t, err)
	assert.Equal(t, "PLA Matte", pla.Name)
	assert.True(t, pla.Active)

	petg, err := store.CreateMaterial(ctx, Material{Name: "PETG", CostPerKg: 1100})
	require.NoError(t, err)

	petg.Active = false
	petg.CostPerKg = 1150
	_, err = store.UpdateMaterial(ctx, petg.ID, petg)
	require.NoError(t, err)

	all, err := store.ListMaterials(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "PETG", all[0].Name, "newest first")
	assert.Equal(t, 1150.0, all[0].CostPerKg)
	assert.False(t, all[0].Active)

	active, err := store.ListMaterials(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, pla.ID, active[0].ID)

	_, err = store.UpdateMaterial(ctx, 999, pla)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetMaterial(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRates_PerKind(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	box, err := store.CreateRate(ctx, Packaging, Rate{Name: "Gift box", FlatCost: 25, Active: true})
	require.NoError(t, err)
	courier, err := store.CreateRate(ctx, Shipping, Rate{Name: "Courier", FlatCost: 80, Active: true})
	require.NoError(t, err)

	packaging, err := store.ListRates(ctx, Packaging, false)
	require.NoError(t, err)
	require.Len(t, packaging, 1)
	assert.Equal(t, box.ID, packaging[0].ID)
	assert.Equal(t, Packaging, packaging[0].Kind)

	courier.Active = false
	_, err = store.UpdateRate(ctx, Shipping, courier.ID, courier)
	require.NoError(t, err)

	shipping, err := store.ListRates(ctx, Shipping, true)
	require.NoError(t, err)
	assert.Empty(t, shipping)

	_, err = store.ListRates(ctx, RateKind("freight"), false)
	require.Error(t, err)
	_, err = store.GetRate(ctx, Packaging, 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveAndApplyPresets(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	m, err := store.CreateMaterial(ctx, Material{Name: "ASA", CostPerKg: 1300})
	require.NoError(t, err)
	ship, err := store.CreateRate(ctx, Shipping, Rate{Name: "Courier", FlatCost: 60, Active: true})
	require.NoError(t, err)

	presets, err := store.Resolve(ctx, Selection{MaterialID: m.ID, ShippingID: ship.ID})
	require.NoError(t, err)
	assert.Nil(t, presets.Packaging)

	in := pricing.JobInputs{PackagingCost: "15", MaterialCostPerKg: "850"}
	out := ApplyPresets(in, presets)
	assert.Equal(t, 1300.0, out.MaterialCostPerKg.Float())
	assert.Equal(t, 60.0, out.ShippingCost.Float())
	assert.Equal(t, pricing.Number("15"), out.PackagingCost)

	_, err = store.Resolve(ctx, Selection{PackagingID: 77})
	require.ErrorIs(t, err, ErrNotFound)
}
