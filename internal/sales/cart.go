// Package sales records point-of-sale transactions for stocked products and
// saved print jobs.
package sales

import (
	"errors"
	"fmt"
	"math"

	"github.com/Simplici0/printprice/internal/jobs"
	"github.com/Simplici0/printprice/internal/pricing"
)

var (
	// ErrInsufficientStock is returned when a cart asks for more units of a
	// product than are in stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrEmptyCart is returned by Checkout for a cart without lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity is returned for line quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Kind tells what a sale line refers to.
type Kind string

const (
	KindProduct Kind = "product"
	KindJob     Kind = "job"
)

// Line is one cart or sale row. Prices and costs are snapshots taken when the
// line was built. UnitPrice includes VAT at TaxRate percent.
type Line struct {
	Kind       Kind    `json:"kind"`
	RefID      string  `json:"ref_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	UnitCost   float64 `json:"unit_cost"`
	TaxRate    float64 `json:"tax_rate"`
	LaborCost  float64 `json:"labor_cost"`
	EnergyCost float64 `json:"energy_cost"`

	limited bool
	stock   int
}

// LineFromProduct builds a line for qty units of p, limited by p.Stock.
func LineFromProduct(p Product, qty int) Line {
	return Line{
		Kind:      KindProduct,
		RefID:     p.ID,
		Name:      p.Name,
		Quantity:  qty,
		UnitPrice: p.Price,
		UnitCost:  p.Cost,
		TaxRate:   p.TaxRate,
		limited:   true,
		stock:     p.Stock,
	}
}

// LineFromJob builds a line from a saved job's snapshot. A qty below one uses
// the job's batch quantity.
func LineFromJob(j jobs.Job, qty int) Line {
	if qty < 1 {
		qty = int(math.Max(1, math.Round(j.Results.Quantity)))
	}
	unit := j.Results.Unit
	return Line{
		Kind:       KindJob,
		RefID:      j.ID,
		Name:       j.Name,
		Quantity:   qty,
		UnitPrice:  unit.FinalPrice,
		UnitCost:   unit.ProductionCost,
		TaxRate:    j.Inputs.TaxRate.Float(),
		LaborCost:  unit.Labor,
		EnergyCost: unit.Energy,
	}
}

// Cart collects lines before checkout.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Add appends l, merging it into an existing line with the same reference.
// Product lines may not exceed the stock they were built with.
func (c *Cart) Add(l Line) error {
	if l.Quantity < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.Lines {
		existing := &c.Lines[i]
		if existing.Kind != l.Kind || existing.RefID != l.RefID {
			continue
		}
		if l.limited && existing.Quantity+l.Quantity > l.stock {
			return fmt.Errorf("%s: %w (%d in stock)", l.Name, ErrInsufficientStock, l.stock)
		}
		existing.Quantity += l.Quantity
		return nil
	}
	if l.limited && l.Quantity > l.stock {
		return fmt.Errorf("%s: %w (%d in stock)", l.Name, ErrInsufficientStock, l.stock)
	}
	c.Lines = append(c.Lines, l)
	return nil
}

// Totals are the money figures of a cart or sale.
type Totals struct {
	Revenue float64 `json:"total_revenue"`
	Cost    float64 `json:"total_cost"`
	Profit  float64 `json:"total_profit"`
	Tax     float64 `json:"total_tax"`
}

// Summarize totals lines plus shipping. Shipping counts as revenue, and tax is
// the VAT already included in the line prices.
func Summarize(lines []Line, shipping float64) Totals {
	var t Totals
	for _, l := range lines {
		qty := float64(l.Quantity)
		t.Revenue += l.UnitPrice * qty
		t.Cost += l.UnitCost * qty
		t.Tax += pricing.IncludedTax(l.UnitPrice, l.TaxRate) * qty
	}
	t.Revenue += shipping
	t.Profit = t.Revenue - t.Cost
	return t
}
