package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/printprice/internal/db/dbtest"
	"github.com/Simplici0/printprice/internal/jobs"
	"github.com/Simplici0/printprice/internal/pricing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(dbtest.Open(t))
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return store
}

func TestProductFromJob(t *testing.T) {
	r := pricing.Result{Unit: pricing.Breakdown{FinalPrice: 240, ProductionCost: 120}}

	p := ProductFromJob("", r, 12)

	assert.Equal(t, "Untitled Print", p.Name)
	assert.Equal(t, 240.0, p.Price)
	assert.Equal(t, 120.0, p.Cost)
	assert.Equal(t, 12.0, p.TaxRate)
	assert.Zero(t, p.Stock)
}

func TestLineFromJob(t *testing.T) {
	in := pricing.JobInputs{TaxRate: "12"}
	job := jobs.Job{
		ID:     "job-1",
		Name:   "Dragon",
		Inputs: in,
		Results: pricing.Result{
			Quantity: 3,
			Unit:     pricing.Breakdown{FinalPrice: 300, ProductionCost: 140, Labor: 25, Energy: 4},
		},
	}

	l := LineFromJob(job, 0)
	assert.Equal(t, KindJob, l.Kind)
	assert.Equal(t, 3, l.Quantity, "defaults to batch quantity")
	assert.Equal(t, 300.0, l.UnitPrice)
	assert.Equal(t, 140.0, l.UnitCost)
	assert.Equal(t, 12.0, l.TaxRate)
	assert.Equal(t, 25.0, l.LaborCost)
	assert.Equal(t, 4.0, l.EnergyCost)

	assert.Equal(t, 1, LineFromJob(job, 1).Quantity)
}

func TestCart_MergesAndEnforcesStock(t *testing.T) {
	p := Product{ID: "p1", Name: "Keychain", Price: 50, Cost: 10, Stock: 3}
	var cart Cart

	require.NoError(t, cart.Add(LineFromProduct(p, 2)))
	require.NoError(t, cart.Add(LineFromProduct(p, 1)))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Quantity)

	err := cart.Add(LineFromProduct(p, 1))
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, cart.Lines[0].Quantity)

	empty := Product{ID: "p2", Name: "Sold out", Stock: 0}
	require.ErrorIs(t, cart.Add(LineFromProduct(empty, 1)), ErrInsufficientStock)
	require.ErrorIs(t, cart.Add(LineFromProduct(p, 0)), ErrInvalidQuantity)

	job := jobs.Job{ID: "j1", Name: "Custom", Results: pricing.Result{Quantity: 1}}
	require.NoError(t, cart.Add(LineFromJob(job, 5)))
	require.NoError(t, cart.Add(LineFromJob(job, 5)))
	assert.Len(t, cart.Lines, 2)
	assert.Equal(t, 10, cart.Lines[1].Quantity)
}

func TestSummarize(t *testing.T) {
	lines := []Line{
		{Quantity: 2, UnitPrice: 112, UnitCost: 40, TaxRate: 12},
		{Quantity: 1, UnitPrice: 50, UnitCost: 20},
	}

	totals := Summarize(lines, 30)

	assert.InDelta(t, 2*112+50+30, totals.Revenue, 1e-9)
	assert.InDelta(t, 100, totals.Cost, 1e-9)
	assert.InDelta(t, totals.Revenue-100, totals.Profit, 1e-9)
	assert.InDelta(t, 24, totals.Tax, 1e-9)
}

func TestProducts_CRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a, err := store.CreateProduct(ctx, Product{Name: " Planter ", Price: 150, Cost: 60, TaxRate: 12, Stock: 4})
	require.NoError(t, err)
	assert.Equal(t, "Planter", a.Name)
	b, err := store.CreateProduct(ctx, Product{Name: "Coaster", Price: 40, Cost: 10, Stock: 10})
	require.NoError(t, err)

	list, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)

	a.Stock = 9
	_, err = store.UpdateProduct(ctx, a.ID, a)
	require.NoError(t, err)
	got, err := store.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Stock)
	assert.Equal(t, a.CreatedAt, got.CreatedAt)

	require.NoError(t, store.DeleteProduct(ctx, b.ID))
	require.ErrorIs(t, store.DeleteProduct(ctx, b.ID), ErrNotFound)
	_, err = store.UpdateProduct(ctx, b.ID, b)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCheckout_DecrementsStockAndRecordsSale(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	p, err := store.CreateProduct(ctx, Product{Name: "Planter", Price: 112, Cost: 50, TaxRate: 12, Stock: 5})
	require.NoError(t, err)

	var cart Cart
	require.NoError(t, cart.Add(LineFromProduct(p, 2)))
	require.NoError(t, cart.Add(Line{Kind: KindJob, RefID: "job-9", Name: "Bust", Quantity: 1, UnitPrice: 500, UnitCost: 200}))

	sale, err := store.Checkout(ctx, cart, "cash", 20)
	require.NoError(t, err)
	assert.InDelta(t, 2*112+500+20, sale.Totals.Revenue, 1e-9)
	assert.InDelta(t, 300, sale.Totals.Cost, 1e-9)
	assert.InDelta(t, 24, sale.Totals.Tax, 1e-9)

	after, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, after.Stock)

	listed, err := store.ListSales(ctx, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, sale.ID, listed[0].ID)
	require.Len(t, listed[0].Items, 2)
	assert.Equal(t, "Planter", listed[0].Items[0].Name)
	assert.Equal(t, sale.Totals, listed[0].Totals)
}

func TestCheckout_InsufficientStockWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	p, err := store.CreateProduct(ctx, Product{Name: "Planter", Price: 100, Cost: 50, Stock: 2})
	require.NoError(t, err)

	var cart Cart
	require.NoError(t, cart.Add(LineFromProduct(p, 2)))

	// Stock sold elsewhere after the line was built.
	p.Stock = 1
	_, err = store.UpdateProduct(ctx, p.ID, p)
	require.NoError(t, err)

	_, err = store.Checkout(ctx, cart, "card", 0)
	require.ErrorIs(t, err, ErrInsufficientStock)

	after, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Stock)

	listed, err := store.ListSales(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = store.Checkout(ctx, Cart{}, "cash", 0)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestSales_ListNewestFirstAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	line := Line{Kind: KindJob, RefID: "j", Name: "Print", Quantity: 1, UnitPrice: 10, UnitCost: 5}
	first, err := store.Checkout(ctx, Cart{Lines: []Line{line}}, "cash", 0)
	require.NoError(t, err)
	second, err := store.Checkout(ctx, Cart{Lines: []Line{line}}, "gcash", 0)
	require.NoError(t, err)

	listed, err := store.ListSales(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, second.ID, listed[0].ID)

	require.NoError(t, store.DeleteSale(ctx, first.ID))
	require.ErrorIs(t, store.DeleteSale(ctx, first.ID), ErrNotFound)

	listed, err = store.ListSales(ctx, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestSales_ListLoadsOnlyListedItems(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	older, err := store.Checkout(ctx, Cart{Lines: []Line{
		{Kind: KindJob, RefID: "a", Name: "Old print", Quantity: 1, UnitPrice: 10, UnitCost: 5},
		{Kind: KindJob, RefID: "b", Name: "Old stand", Quantity: 2, UnitPrice: 4, UnitCost: 1},
	}}, "cash", 0)
	require.NoError(t, err)
	newer, err := store.Checkout(ctx, Cart{Lines: []Line{
		{Kind: KindJob, RefID: "c", Name: "New print", Quantity: 3, UnitPrice: 20, UnitCost: 8},
	}}, "card", 0)
	require.NoError(t, err)

	listed, err := store.ListSales(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, newer.ID, listed[0].ID)
	require.Len(t, listed[0].Items, 1)
	assert.Equal(t, "New print", listed[0].Items[0].Name)

	got, err := store.GetSale(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Old print", got.Items[0].Name)

	_, err = store.GetSale(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSales_UpdateRecomputesProfit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	sale, err := store.Checkout(ctx, Cart{Lines: []Line{
		{Kind: KindJob, RefID: "a", Name: "Print", Quantity: 2, UnitPrice: 50, UnitCost: 20},
	}}, "cash", 0)
	require.NoError(t, err)
	require.InDelta(t, 60, sale.Totals.Profit, 1e-9)

	method := "gcash"
	revenue := 90.0
	when := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	updated, err := store.UpdateSale(ctx, sale.ID, SalePatch{PaymentMethod: &method, Revenue: &revenue, CreatedAt: &when})
	require.NoError(t, err)
	assert.Equal(t, "gcash", updated.PaymentMethod)
	assert.InDelta(t, 90, updated.Totals.Revenue, 1e-9)
	assert.InDelta(t, 50, updated.Totals.Profit, 1e-9)
	assert.InDelta(t, sale.Totals.Cost, updated.Totals.Cost, 1e-9)

	reloaded, err := store.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Totals, reloaded.Totals)
	assert.True(t, when.Equal(reloaded.CreatedAt))
	assert.Len(t, reloaded.Items, 1)

	_, err = store.UpdateSale(ctx, "missing", SalePatch{Revenue: &revenue})
	require.ErrorIs(t, err, ErrNotFound)
}
