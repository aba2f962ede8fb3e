package pricing

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const epsilon = 1e-6

func approx(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= epsilon*scale
}

func genJob() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(1, 50),         // quantity
		gen.Float64Range(0, 3000),   // cost per kg
		gen.Float64Range(0, 2000),   // grams
		gen.Float64Range(0, 72),     // print hours
		gen.Float64Range(0, 500),    // printer watts
		gen.Float64Range(0, 100000), // machine cost
		gen.Float64Range(0, 10000),  // lifespan
		gen.Float64Range(0, 500),    // labor rate
		gen.Float64Range(0, 240),    // labor minutes
		gen.Float64Range(0, 50),     // fail margin
		gen.Float64Range(0, 200),    // markup
		gen.Float64Range(0, 25),     // tax
		gen.Float64Range(0, 20),     // commission
		gen.Float64Range(0, 100),    // fixed fee
		gen.Float64Range(0, 150),    // shipping
	).Map(func(v []any) JobInputs {
		return JobInputs{
			Quantity:           N(float64(v[0].(int))),
			MaterialCostPerKg:  N(v[1].(float64)),
			MaterialGrams:      N(v[2].(float64)),
			PrintHours:         N(v[3].(float64)),
			PrinterWatts:       N(v[4].(float64)),
			DryerWatts:         "48",
			DryingSameAsPrint:  true,
			ElectricityRate:    "12",
			MachineCost:        N(v[5].(float64)),
			LifespanHours:      N(v[6].(float64)),
			LaborRate:          N(v[7].(float64)),
			LaborMinutes:       N(v[8].(float64)),
			FailMargin:         N(v[9].(float64)),
			Markup:             N(v[10].(float64)),
			TaxRate:            N(v[11].(float64)),
			FeesEnabled:        true,
			CommissionPercent:  N(v[12].(float64)),
			TransactionPercent: "2.24",
			FixedFee:           N(v[13].(float64)),
			ShippingCost:       N(v[14].(float64)),
			PackagingCost:      "15",
			Extras:             []Extra{{Label: "insert", Price: "4"}},
		}
	})
}

func TestPricingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("batch figures are unit figures times quantity", prop.ForAll(
		func(in JobInputs) bool {
			r := Compute(in)
			n := r.Quantity
			pairs := [][2]float64{
				{r.Batch.Material, r.Unit.Material},
				{r.Batch.Energy, r.Unit.Energy},
				{r.Batch.Depreciation, r.Unit.Depreciation},
				{r.Batch.Labor, r.Unit.Labor},
				{r.Batch.Extras, r.Unit.Extras},
				{r.Batch.FailureRisk, r.Unit.FailureRisk},
				{r.Batch.Packaging, r.Unit.Packaging},
				{r.Batch.Shipping, r.Unit.Shipping},
				{r.Batch.Tax, r.Unit.Tax},
				{r.Batch.PlatformFeeAmount, r.Unit.PlatformFeeAmount},
				{r.Batch.Profit, r.Unit.Profit},
				{r.Batch.FinalPrice, r.Unit.FinalPrice},
				{r.Batch.TotalCostBasis, r.Unit.TotalCostBasis},
				{r.Batch.ProductionCost, r.Unit.ProductionCost},
			}
			for _, p := range pairs {
				if !approx(p[0], p[1]*n) {
					return false
				}
			}
			return true
		},
		genJob(),
	))

	properties.Property("production cost decomposes into its parts", prop.ForAll(
		func(in JobInputs) bool {
			r := Compute(in)
			for _, b := range []Breakdown{r.Unit, r.Batch} {
				sum := b.Material + b.Energy + b.Depreciation + b.Labor + b.Extras + b.FailureRisk
				if !approx(b.ProductionCost, sum) {
					return false
				}
			}
			return true
		},
		genJob(),
	))

	properties.Property("failure risk applies to the pre-failure subtotal", prop.ForAll(
		func(in JobInputs) bool {
			b := Compute(in).Batch
			subtotal := b.Material + b.Energy + b.Depreciation + b.Labor + b.Extras
			return approx(b.FailureRisk, subtotal*in.FailMargin.Float()/100)
		},
		genJob(),
	))

	properties.Property("inverse solver recovers the markup", prop.ForAll(
		func(opCost, markup, tax, commission, transaction, fixed, shipping float64) bool {
			in := SolveInput{
				OpCost:        opCost,
				MarkupPercent: markup,
				Shipping:      shipping,
				Fees: FeeSchedule{
					Enabled:            true,
					CommissionPercent:  commission,
					TransactionPercent: transaction,
					FixedFee:           fixed,
				},
				TaxRatePercent: tax,
			}
			q := Solve(in)
			if !q.Priced() {
				return true
			}
			got, ok := InverseMarkup(q.FinalPrice, in)
			tolerance := epsilon * math.Max(1, q.FinalPrice/opCost)
			return ok && math.Abs(got-markup) <= tolerance
		},
		gen.Float64Range(1, 5000),
		gen.Float64Range(0, 300),
		gen.Float64Range(0, 25),
		gen.Float64Range(0, 30),
		gen.Float64Range(0, 10),
		gen.Float64Range(0, 50),
		gen.Float64Range(0, 200),
	))

	properties.Property("disabled fees reduce to a pure VAT uplift", prop.ForAll(
		func(opCost, markup, tax, commission, fixed float64) bool {
			q := Solve(SolveInput{
				OpCost:         opCost,
				MarkupPercent:  markup,
				Shipping:       25,
				Fees:           FeeSchedule{Enabled: false, CommissionPercent: commission, TransactionPercent: 5, FixedFee: fixed},
				TaxRatePercent: tax,
			})
			target := opCost + opCost*(markup/100)
			return approx(q.FinalPrice, target/(1/(1+tax/100))) && q.PlatformFee == 0
		},
		gen.Float64Range(0, 5000),
		gen.Float64Range(0, 300),
		gen.Float64Range(0, 25),
		gen.Float64Range(0, 90),
		gen.Float64Range(0, 50),
	))

	properties.Property("fee and tax burden at or above the price is unpriceable", prop.ForAll(
		func(opCost, tax, extra float64) bool {
			// commission >= taxFactor*100 forces a non-positive denominator.
			commission := 100/(1+tax/100) + extra
			q := Solve(SolveInput{
				OpCost:         opCost,
				MarkupPercent:  50,
				Fees:           FeeSchedule{Enabled: true, CommissionPercent: commission},
				TaxRatePercent: tax,
			})
			return q.FinalPrice == 0 &&
				!math.IsNaN(q.TotalCostBasis) && !math.IsInf(q.TotalCostBasis, 0)
		},
		gen.Float64Range(0, 5000),
		gen.Float64Range(0, 25),
		gen.Float64Range(0.001, 50),
	))

	properties.Property("net proceeds equal cost plus profit", prop.ForAll(
		func(in JobInputs) bool {
			u := Compute(in).Unit
			if u.FinalPrice <= 0 {
				return true
			}
			target := u.ProductionCost + u.Packaging + u.Profit
			return approx(u.FinalPrice-u.PlatformFeeAmount-u.Tax, target) &&
				approx(u.TotalCostBasis, u.ProductionCost+u.Packaging+u.PlatformFeeAmount+u.Tax+u.Shipping)
		},
		genJob(),
	))

	properties.Property("recomputation is deterministic", prop.ForAll(
		func(in JobInputs) bool {
			first := Compute(in)
			second := Compute(in)
			return first == second
		},
		genJob(),
	))

	properties.TestingRun(t)
}
