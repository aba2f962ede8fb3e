// Package settings keeps the shop-wide defaults that seed every new quote.
//
// Defaults are layered, lowest precedence first:
//
//  1. hardcoded Defaults()
//  2. synced defaults shared by every device (redis or the "global" scope)
//  3. local overrides saved by this installation
//
// After the layers are applied the per-job transient fields (name, quantity,
// notes, grams, print and drying time, extras) are reset, so a draft never
// inherits another job's part data.
package settings

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Simplici0/printprice/internal/pricing"
)

// Bag is a flat key-value view of the persistent quote fields.
type Bag map[string]string

type field struct {
	key string
	get func(pricing.JobInputs) string
	set func(*pricing.JobInputs, string)
}

func number(key string, ptr func(*pricing.JobInputs) *pricing.Number) field {
	return field{
		key: key,
		get: func(in pricing.JobInputs) string { return string(*ptr(&in)) },
		set: func(in *pricing.JobInputs, v string) { *ptr(in) = pricing.Number(v) },
	}
}

func flag(key string, ptr func(*pricing.JobInputs) *bool) field {
	return field{
		key: key,
		get: func(in pricing.JobInputs) string { return strconv.FormatBool(*ptr(&in)) },
		set: func(in *pricing.JobInputs, v string) { *ptr(in) = parseBool(v) },
	}
}

var persistent = []field{
	number("material_cost_per_kg", func(in *pricing.JobInputs) *pricing.Number { return &in.MaterialCostPerKg }),
	number("machine_cost", func(in *pricing.JobInputs) *pricing.Number { return &in.MachineCost }),
	number("lifespan_hours", func(in *pricing.JobInputs) *pricing.Number { return &in.LifespanHours }),
	number("printer_watts", func(in *pricing.JobInputs) *pricing.Number { return &in.PrinterWatts }),
	number("dryer_watts", func(in *pricing.JobInputs) *pricing.Number { return &in.DryerWatts }),
	number("electricity_rate", func(in *pricing.JobInputs) *pricing.Number { return &in.ElectricityRate }),
	number("labor_rate", func(in *pricing.JobInputs) *pricing.Number { return &in.LaborRate }),
	number("labor_minutes", func(in *pricing.JobInputs) *pricing.Number { return &in.LaborMinutes }),
	number("fail_margin", func(in *pricing.JobInputs) *pricing.Number { return &in.FailMargin }),
	flag("fees_enabled", func(in *pricing.JobInputs) *bool { return &in.FeesEnabled }),
	number("commission_percent", func(in *pricing.JobInputs) *pricing.Number { return &in.CommissionPercent }),
	number("transaction_percent", func(in *pricing.JobInputs) *pricing.Number { return &in.TransactionPercent }),
	number("service_percent", func(in *pricing.JobInputs) *pricing.Number { return &in.ServicePercent }),
	number("fixed_fee", func(in *pricing.JobInputs) *pricing.Number { return &in.FixedFee }),
	number("tax_rate", func(in *pricing.JobInputs) *pricing.Number { return &in.TaxRate }),
	number("packaging_cost", func(in *pricing.JobInputs) *pricing.Number { return &in.PackagingCost }),
	number("shipping_cost", func(in *pricing.JobInputs) *pricing.Number { return &in.ShippingCost }),
	number("markup", func(in *pricing.JobInputs) *pricing.Number { return &in.Markup }),
}

var byKey = func() map[string]field {
	m := make(map[string]field, len(persistent))
	for _, f := range persistent {
		m[f.key] = f
	}
	return m
}()

// Keys returns the persistent field keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(persistent))
	for _, f := range persistent {
		keys = append(keys, f.key)
	}
	sort.Strings(keys)
	return keys
}

// IsPersistent reports whether key names a persistent field.
func IsPersistent(key string) bool {
	_, ok := byKey[key]
	return ok
}

// Defaults returns the hardcoded shop defaults.
func Defaults() pricing.JobInputs {
	return pricing.JobInputs{
		Quantity:           "1",
		MaterialCostPerKg:  "850",
		MaterialGrams:      "0",
		PrintHours:         "0",
		PrintMinutes:       "0",
		DryingHours:        "0",
		DryingMinutes:      "0",
		Extras:             []pricing.Extra{},
		MachineCost:        "20000",
		LifespanHours:      "3000",
		PrinterWatts:       "150",
		DryerWatts:         "48",
		ElectricityRate:    "12",
		LaborRate:          "100",
		LaborMinutes:       "15",
		FailMargin:         "10",
		FeesEnabled:        true,
		CommissionPercent:  "7.24",
		TransactionPercent: "2.24",
		ServicePercent:     "0",
		FixedFee:           "0",
		TaxRate:            "12",
		PackagingCost:      "15",
		ShippingCost:       "0",
		Markup:             "50",
	}
}

// Extract returns the persistent fields of in.
func Extract(in pricing.JobInputs) Bag {
	bag := make(Bag, len(persistent))
	for _, f := range persistent {
		bag[f.key] = f.get(in)
	}
	return bag
}

// Filter drops keys that are not persistent fields.
func (b Bag) Filter() Bag {
	out := make(Bag, len(b))
	for k, v := range b {
		if IsPersistent(k) {
			out[k] = v
		}
	}
	return out
}

// Apply overwrites the persistent fields of in that b carries.
func (b Bag) Apply(in pricing.JobInputs) pricing.JobInputs {
	for _, f := range persistent {
		if v, ok := b[f.key]; ok {
			f.set(&in, v)
		}
	}
	return in
}

// Draft layers bags over Defaults in order and resets the transient fields.
func Draft(layers ...Bag) pricing.JobInputs {
	in := Defaults()
	for _, layer := range layers {
		in = layer.Apply(in)
	}
	return ResetTransient(in)
}

// ResetTransient clears the fields that belong to a single job.
func ResetTransient(in pricing.JobInputs) pricing.JobInputs {
	in.Name = ""
	in.Quantity = "1"
	in.Notes = ""
	in.MaterialGrams = "0"
	in.PrintHours = "0"
	in.PrintMinutes = "0"
	in.DryingHours = "0"
	in.DryingMinutes = "0"
	in.DryingSameAsPrint = false
	in.Extras = []pricing.Extra{}
	return in
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
