package pricing

import "math"

// Extra is an ad-hoc cost line added to a batch (inserts, magnets, paint).
type Extra struct {
	Label string `json:"label" yaml:"label"`
	Price Number `json:"price" yaml:"price"`
}

// JobInputs represents everything a quote is computed from. Numeric fields
// keep the caller's text and are coerced with ParseLenientNumber at use.
type JobInputs struct {
	Name     string `json:"name" yaml:"name"`
	Quantity Number `json:"quantity" yaml:"quantity"`
	Notes    string `json:"notes,omitempty" yaml:"notes,omitempty"`

	MaterialCostPerKg Number `json:"material_cost_per_kg" yaml:"material_cost_per_kg"`
	MaterialGrams     Number `json:"material_grams" yaml:"material_grams"`

	PrintHours        Number `json:"print_hours" yaml:"print_hours"`
	PrintMinutes      Number `json:"print_minutes" yaml:"print_minutes"`
	DryingHours       Number `json:"drying_hours" yaml:"drying_hours"`
	DryingMinutes     Number `json:"drying_minutes" yaml:"drying_minutes"`
	DryingSameAsPrint bool   `json:"drying_same_as_print" yaml:"drying_same_as_print"`

	Extras []Extra `json:"extras" yaml:"extras"`

	MachineCost     Number `json:"machine_cost" yaml:"machine_cost"`
	LifespanHours   Number `json:"lifespan_hours" yaml:"lifespan_hours"`
	PrinterWatts    Number `json:"printer_watts" yaml:"printer_watts"`
	DryerWatts      Number `json:"dryer_watts" yaml:"dryer_watts"`
	ElectricityRate Number `json:"electricity_rate" yaml:"electricity_rate"`

	LaborRate    Number `json:"labor_rate" yaml:"labor_rate"`
	LaborMinutes Number `json:"labor_minutes" yaml:"labor_minutes"`
	FailMargin   Number `json:"fail_margin" yaml:"fail_margin"`

	FeesEnabled        bool   `json:"fees_enabled" yaml:"fees_enabled"`
	CommissionPercent  Number `json:"commission_percent" yaml:"commission_percent"`
	TransactionPercent Number `json:"transaction_percent" yaml:"transaction_percent"`
	ServicePercent     Number `json:"service_percent" yaml:"service_percent"`
	FixedFee           Number `json:"fixed_fee" yaml:"fixed_fee"`

	TaxRate       Number `json:"tax_rate" yaml:"tax_rate"`
	PackagingCost Number `json:"packaging_cost" yaml:"packaging_cost"`
	ShippingCost  Number `json:"shipping_cost" yaml:"shipping_cost"`
	Markup        Number `json:"markup" yaml:"markup"`
}

// Fees returns the marketplace fee schedule of the inputs. Stored rates are
// kept even when fees are disabled; the solver ignores them.
func (in JobInputs) Fees() FeeSchedule {
	return FeeSchedule{
		Enabled:            in.FeesEnabled,
		CommissionPercent:  in.CommissionPercent.Float(),
		TransactionPercent: in.TransactionPercent.Float(),
		ServicePercent:     in.ServicePercent.Float(),
		FixedFee:           in.FixedFee.Float(),
	}
}

// Breakdown contains every cost and price figure at unit or batch scale.
type Breakdown struct {
	Material          float64 `json:"material"`
	Energy            float64 `json:"energy"`
	Depreciation      float64 `json:"depreciation"`
	Labor             float64 `json:"labor"`
	Extras            float64 `json:"extras"`
	FailureRisk       float64 `json:"failure_risk"`
	Packaging         float64 `json:"packaging"`
	Shipping          float64 `json:"shipping"`
	Tax               float64 `json:"tax"`
	PlatformFeeAmount float64 `json:"platform_fee_amount"`
	ProductionCost    float64 `json:"production_cost"`
	TotalCostBasis    float64 `json:"total_cost_basis"`
	Profit            float64 `json:"profit"`
	FinalPrice        float64 `json:"final_price"`
}

// Meta carries intermediate figures for display; pricing does not use it.
type Meta struct {
	PrintHours    float64 `json:"print_hours"`
	DryingHours   float64 `json:"drying_hours"`
	PrinterEnergy float64 `json:"printer_energy_cost"`
	DryerEnergy   float64 `json:"dryer_energy_cost"`
	BilledGrams   float64 `json:"billed_grams"`
}

// Result groups the unit and batch breakdowns of a computation.
type Result struct {
	Quantity float64   `json:"quantity"`
	Unit     Breakdown `json:"unit"`
	Batch    Breakdown `json:"batch"`
	Meta     Meta      `json:"meta"`
}

// Priced reports whether the inputs produce a usable listing price. A false
// value means fees and tax consume the whole price under current settings.
func (r Result) Priced() bool {
	return r.Unit.FinalPrice > 0
}

// unitSolveInput builds the solver input for one unit from aggregated costs.
func unitSolveInput(in JobInputs, unit ProductionCosts) SolveInput {
	return SolveInput{
		OpCost:         unit.ProductionCost + in.PackagingCost.Float(),
		MarkupPercent:  in.Markup.Float(),
		Shipping:       in.ShippingCost.Float(),
		Fees:           in.Fees(),
		TaxRatePercent: in.TaxRate.Float(),
	}
}

// Compute aggregates production costs and solves the listing price. It is a
// pure function of in and is safe to call on every input change.
func Compute(in JobInputs) Result {
	costs := Aggregate(in)
	qty := costs.Quantity

	solveIn := unitSolveInput(in, costs.Unit)
	q := Solve(solveIn)

	unit := Breakdown{
		Material:          costs.Unit.Material,
		Energy:            costs.Unit.Energy,
		Depreciation:      costs.Unit.Depreciation,
		Labor:             costs.Unit.Labor,
		Extras:            costs.Unit.Extras,
		FailureRisk:       costs.Unit.FailureRisk,
		ProductionCost:    costs.Unit.ProductionCost,
		Packaging:         in.PackagingCost.Float(),
		Shipping:          solveIn.Shipping,
		Tax:               q.Tax,
		PlatformFeeAmount: q.PlatformFee,
		TotalCostBasis:    q.TotalCostBasis,
		Profit:            q.Profit,
		FinalPrice:        q.FinalPrice,
	}

	batch := Breakdown{
		Material:          costs.Batch.Material,
		Energy:            costs.Batch.Energy,
		Depreciation:      costs.Batch.Depreciation,
		Labor:             costs.Batch.Labor,
		Extras:            costs.Batch.Extras,
		FailureRisk:       costs.Batch.FailureRisk,
		ProductionCost:    costs.Batch.ProductionCost,
		Packaging:         unit.Packaging * qty,
		Shipping:          unit.Shipping * qty,
		Tax:               unit.Tax * qty,
		PlatformFeeAmount: unit.PlatformFeeAmount * qty,
		TotalCostBasis:    unit.TotalCostBasis * qty,
		Profit:            unit.Profit * qty,
		FinalPrice:        unit.FinalPrice * qty,
	}

	return Result{Quantity: qty, Unit: unit, Batch: batch, Meta: costs.Meta}
}

// Scope selects whether an edited price is per unit or for the whole batch.
type Scope string

const (
	ScopeUnit  Scope = "unit"
	ScopeBatch Scope = "batch"
)

// ApplyListingPrice returns in with its markup replaced by the markup implied
// by price. Batch prices are divided by the quantity first. It reports false,
// leaving in untouched, for negative or non-finite prices and when the
// operational cost is not positive.
func ApplyListingPrice(in JobInputs, price float64, scope Scope) (JobInputs, bool) {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return in, false
	}
	costs := Aggregate(in)
	gross := price
	if scope == ScopeBatch {
		gross = price / costs.Quantity
	}

	markup, ok := InverseMarkup(gross, unitSolveInput(in, costs.Unit))
	if !ok {
		return in, false
	}
	in.Markup = N(markup)
	return in, true
}
