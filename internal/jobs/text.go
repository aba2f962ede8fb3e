package jobs

import (
	"fmt"
	"strings"
)

// Text renders a plain-text summary of j suitable for pasting into a chat.
func Text(j Job) string {
	unit := j.Results.Unit
	batch := j.Results.Batch
	qty := j.Results.Quantity

	var b strings.Builder
	fmt.Fprintf(&b, "Quote: %s\n", j.Name)
	fmt.Fprintf(&b, "Price: %s\n", money(unit.FinalPrice))
	if qty > 1 {
		fmt.Fprintf(&b, "Quantity: %g (batch total %s)\n", qty, money(batch.FinalPrice))
	}
	if !j.Results.Priced() {
		b.WriteString("Warning: fees and tax consume the whole price, raise the markup or lower fees.\n")
	}

	b.WriteString("\nUnit breakdown:\n")
	lines := []struct {
		label string
		value float64
	}{
		{"Material", unit.Material},
		{"Energy", unit.Energy},
		{"Depreciation", unit.Depreciation},
		{"Labor", unit.Labor},
		{"Extras", unit.Extras},
		{"Failure risk", unit.FailureRisk},
		{"Production cost", unit.ProductionCost},
		{"Packaging", unit.Packaging},
		{"Shipping", unit.Shipping},
		{"Platform fees", unit.PlatformFeeAmount},
		{"VAT included", unit.Tax},
		{"Profit", unit.Profit},
	}
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s: %s\n", l.label, money(l.value))
	}

	if notes := strings.TrimSpace(j.Inputs.Notes); notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", notes)
	}
	return b.String()
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
