// Command quote prices a print job described in a YAML file.
//
//	quote [-settings bag.yaml] [-gcode plate.3mf] [-price 350 -scope unit] [-json] job.yaml
//
// Fields missing from the job file keep the default settings, overridden by
// the optional settings bag. It exits with status 2 when fees and tax leave no
// usable price.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/Simplici0/printprice/internal/pricing"
	"github.com/Simplici0/printprice/internal/settings"
	"github.com/Simplici0/printprice/internal/slicer"
)

const (
	exitOK          = 0
	exitError       = 1
	exitUnpriceable = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type output struct {
	Inputs  pricing.JobInputs `json:"inputs"`
	Results pricing.Result    `json:"results"`
	Priced  bool              `json:"priced"`
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("quote", flag.ContinueOnError)
	fs.SetOutput(stderr)
	settingsPath := fs.String("settings", "", "YAML settings bag applied over the defaults")
	slicerPath := fs.String("gcode", "", "G-code or 3MF file to read print time and weight from")
	price := fs.Float64("price", -1, "listing price to solve the markup for")
	scope := fs.String("scope", string(pricing.ScopeUnit), "scope of -price: unit or batch")
	asJSON := fs.Bool("json", false, "print inputs and results as JSON")
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: quote [flags] job.yaml")
		fs.PrintDefaults()
		return exitError
	}

	in, err := loadInputs(*settingsPath, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "quote: %v\n", err)
		return exitError
	}

	if *slicerPath != "" {
		in, err = applySlicerFile(in, *slicerPath)
		if err != nil {
			fmt.Fprintf(stderr, "quote: %v\n", err)
			return exitError
		}
	}

	if *price >= 0 {
		s := pricing.Scope(*scope)
		if s != pricing.ScopeUnit && s != pricing.ScopeBatch {
			fmt.Fprintf(stderr, "quote: unknown scope %q\n", *scope)
			return exitError
		}
		updated, ok := pricing.ApplyListingPrice(in, *price, s)
		if !ok {
			fmt.Fprintln(stderr, "quote: a markup cannot be derived without a production cost")
			return exitError
		}
		in = updated
	}

	res := pricing.Compute(in)
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output{Inputs: in, Results: res, Priced: res.Priced()}); err != nil {
			fmt.Fprintf(stderr, "quote: %v\n", err)
			return exitError
		}
	} else {
		fmt.Fprint(stdout, render(lipgloss.NewRenderer(stdout), in, res))
	}

	if !res.Priced() {
		return exitUnpriceable
	}
	return exitOK
}

// loadInputs builds a draft from the defaults and the optional settings bag,
// then decodes the job file over it.
func loadInputs(settingsPath, jobPath string) (pricing.JobInputs, error) {
	bag := settings.Bag{}
	if settingsPath != "" {
		raw, err := os.ReadFile(settingsPath)
		if err != nil {
			return pricing.JobInputs{}, fmt.Errorf("read settings: %w", err)
		}
		values := map[string]pricing.Number{}
		if err := yaml.Unmarshal(raw, &values); err != nil {
			return pricing.JobInputs{}, fmt.Errorf("parse settings %s: %w", settingsPath, err)
		}
		for k, v := range values {
			bag[k] = string(v)
		}
	}

	in := settings.Draft(bag)
	raw, err := os.ReadFile(jobPath)
	if err != nil {
		return pricing.JobInputs{}, fmt.Errorf("read job: %w", err)
	}
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return pricing.JobInputs{}, fmt.Errorf("parse job %s: %w", jobPath, err)
	}
	return in, nil
}

func applySlicerFile(in pricing.JobInputs, path string) (pricing.JobInputs, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("read slicer file: %w", err)
	}
	meta, err := slicer.ParseFile(filepath.Base(path), raw)
	if err != nil {
		if errors.Is(err, slicer.ErrNoMetadata) {
			return in, fmt.Errorf("%s: %w", path, err)
		}
		return in, fmt.Errorf("parse slicer file %s: %w", path, err)
	}
	name := in.Name
	in = meta.Apply(in)
	if name != "" {
		in.Name = name
	}
	return in, nil
}

func render(r *lipgloss.Renderer, in pricing.JobInputs, res pricing.Result) string {
	title := r.NewStyle().Bold(true)
	muted := r.NewStyle().Faint(true)
	warn := r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	box := r.NewStyle().BorderStyle(lipgloss.RoundedBorder()).Padding(0, 1)

	name := in.Name
	if name == "" {
		name = "Untitled Job"
	}

	rows := []struct {
		label       string
		unit, batch float64
	}{
		{"Material", res.Unit.Material, res.Batch.Material},
		{"Energy", res.Unit.Energy, res.Batch.Energy},
		{"Depreciation", res.Unit.Depreciation, res.Batch.Depreciation},
		{"Labor", res.Unit.Labor, res.Batch.Labor},
		{"Extras", res.Unit.Extras, res.Batch.Extras},
		{"Failure risk", res.Unit.FailureRisk, res.Batch.FailureRisk},
		{"Production cost", res.Unit.ProductionCost, res.Batch.ProductionCost},
		{"Packaging", res.Unit.Packaging, res.Batch.Packaging},
		{"Shipping", res.Unit.Shipping, res.Batch.Shipping},
		{"Platform fees", res.Unit.PlatformFeeAmount, res.Batch.PlatformFeeAmount},
		{"VAT included", res.Unit.Tax, res.Batch.Tax},
		{"Profit", res.Unit.Profit, res.Batch.Profit},
	}

	body := muted.Render(fmt.Sprintf("%-16s %12s %12s", "", "unit", fmt.Sprintf("batch x%g", res.Quantity))) + "\n"
	for _, row := range rows {
		body += fmt.Sprintf("%-16s %12.2f %12.2f\n", row.label, row.unit, row.batch)
	}
	body += title.Render(fmt.Sprintf("%-16s %12.2f %12.2f", "Final price", res.Unit.FinalPrice, res.Batch.FinalPrice))

	out := title.Render(name) + "\n" + box.Render(body) + "\n"
	if !res.Priced() {
		out += warn.Render("fees and tax consume the whole price, raise the markup or lower fees") + "\n"
	}
	return out
}
