package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Simplici0/printprice/internal/capital"
	"github.com/Simplici0/printprice/internal/jobs"
	"github.com/Simplici0/printprice/internal/sales"
)

func TestCompute(t *testing.T) {
	sold := []sales.Sale{
		{
			Totals: sales.Totals{Revenue: 244, Profit: 120},
			Items: []sales.Line{
				{UnitPrice: 112, TaxRate: 12, Quantity: 2},
			},
			Shipping: 20,
		},
		{
			Totals: sales.Totals{Revenue: 50, Profit: 30},
			Items: []sales.Line{
				{UnitPrice: 50, TaxRate: 0, Quantity: 1},
			},
		},
	}
	saved := []jobs.Job{{FinalPrice: 300}, {FinalPrice: 125.5}}
	spent := []capital.Item{{Price: 100}, {Price: 80}}

	st := Compute(sold, saved, spent)

	assert.InDelta(t, 294, st.RealizedRevenue, 1e-9)
	assert.InDelta(t, 150, st.RealizedProfit, 1e-9)
	assert.InDelta(t, 24, st.TaxCollected, 1e-9)
	assert.InDelta(t, 425.5, st.PotentialRevenue, 1e-9)
	assert.InDelta(t, 180, st.TotalCapital, 1e-9)
	assert.InDelta(t, -30, st.NetPosition, 1e-9)
	assert.Equal(t, 2, st.SalesCount)
	assert.Equal(t, 2, st.JobsCount)
	assert.Equal(t, 2, st.CapitalCount)
}

func TestCompute_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, Compute(nil, nil, nil))
}
