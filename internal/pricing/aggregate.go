package pricing

import "math"

// ProductionCosts holds the raw cost of making a quantity of parts.
type ProductionCosts struct {
	Material       float64
	Energy         float64
	Depreciation   float64
	Labor          float64
	Extras         float64
	FailureRisk    float64
	ProductionCost float64
}

// Subtotal is the production cost before the failure margin.
func (c ProductionCosts) Subtotal() float64 {
	return c.Material + c.Energy + c.Depreciation + c.Labor + c.Extras
}

func (c ProductionCosts) divide(qty float64) ProductionCosts {
	return ProductionCosts{
		Material:       c.Material / qty,
		Energy:         c.Energy / qty,
		Depreciation:   c.Depreciation / qty,
		Labor:          c.Labor / qty,
		Extras:         c.Extras / qty,
		FailureRisk:    c.FailureRisk / qty,
		ProductionCost: c.ProductionCost / qty,
	}
}

// Costs is the output of Aggregate.
type Costs struct {
	Quantity float64
	Unit     ProductionCosts
	Batch    ProductionCosts
	Meta     Meta
}

// Quantity returns the batch size, floored to 1.
func Quantity(in JobInputs) float64 {
	return math.Max(1, in.Quantity.Float())
}

// Aggregate converts job inputs into batch and unit production costs.
// Every figure is computed for the whole batch and divided by the quantity;
// labor is a one-off prep cost per batch.
func Aggregate(in JobInputs) Costs {
	qty := Quantity(in)

	billedGrams := in.MaterialGrams.Float()
	material := (in.MaterialCostPerKg.Float() / 1000) * billedGrams

	printHours := in.PrintHours.Float() + (in.PrintMinutes.Float() / 60)
	rate := in.ElectricityRate.Float()
	printerEnergy := (in.PrinterWatts.Float() / 1000) * printHours * rate

	dryingHours := in.DryingHours.Float() + (in.DryingMinutes.Float() / 60)
	if in.DryingSameAsPrint {
		dryingHours = printHours
	}
	dryerEnergy := (in.DryerWatts.Float() / 1000) * dryingHours * rate
	energy := printerEnergy + dryerEnergy

	depreciation := 0.0
	if lifespan := in.LifespanHours.Float(); lifespan > 0 {
		depreciation = (in.MachineCost.Float() / lifespan) * printHours
	}

	labor := (in.LaborRate.Float() / 60) * in.LaborMinutes.Float()

	extras := 0.0
	for _, ex := range in.Extras {
		extras += ex.Price.Float()
	}

	subtotal := material + energy + depreciation + labor + extras
	failure := subtotal * (in.FailMargin.Float() / 100)

	batch := ProductionCosts{
		Material:       material,
		Energy:         energy,
		Depreciation:   depreciation,
		Labor:          labor,
		Extras:         extras,
		FailureRisk:    failure,
		ProductionCost: subtotal + failure,
	}

	return Costs{
		Quantity: qty,
		Unit:     batch.divide(qty),
		Batch:    batch,
		Meta: Meta{
			PrintHours:    printHours,
			DryingHours:   dryingHours,
			PrinterEnergy: printerEnergy,
			DryerEnergy:   dryerEnergy,
			BilledGrams:   billedGrams,
		},
	}
}
