// Package dashboard summarizes sales, saved jobs and capital spending.
package dashboard

import (
	"github.com/Simplici0/printprice/internal/capital"
	"github.com/Simplici0/printprice/internal/jobs"
	"github.com/Simplici0/printprice/internal/pricing"
	"github.com/Simplici0/printprice/internal/sales"
)

// Stats are the shop-wide totals.
type Stats struct {
	RealizedRevenue  float64 `json:"realized_revenue"`
	RealizedProfit   float64 `json:"realized_profit"`
	TaxCollected     float64 `json:"tax_collected"`
	PotentialRevenue float64 `json:"potential_revenue"`
	TotalCapital     float64 `json:"total_capital"`
	NetPosition      float64 `json:"net_position"`
	SalesCount       int     `json:"sales_count"`
	JobsCount        int     `json:"jobs_count"`
	CapitalCount     int     `json:"capital_count"`
}

// Compute totals the recorded figures. Revenue and profit come from the
// stored sale totals, so edited sales count as edited. VAT is backed out of
// each line's unit price; shipping carries none. Potential revenue sums the
// unit price of every saved job, and net position is realized profit minus
// capital spent.
func Compute(sold []sales.Sale, saved []jobs.Job, spent []capital.Item) Stats {
	var st Stats
	for _, s := range sold {
		st.RealizedRevenue += s.Totals.Revenue
		st.RealizedProfit += s.Totals.Profit
		for _, l := range s.Items {
			st.TaxCollected += pricing.IncludedTax(l.UnitPrice, l.TaxRate) * float64(l.Quantity)
		}
	}
	for _, j := range saved {
		st.PotentialRevenue += j.FinalPrice
	}
	for _, it := range spent {
		st.TotalCapital += it.Price
	}
	st.NetPosition = st.RealizedProfit - st.TotalCapital
	st.SalesCount = len(sold)
	st.JobsCount = len(saved)
	st.CapitalCount = len(spent)
	return st
}
