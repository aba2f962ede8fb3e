// Package slicer extracts print time and filament mass from slicer output.
package slicer

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/Simplici0/printprice/internal/pricing"
)

// ErrNoMetadata is returned when a file holds no recognisable time or weight.
var ErrNoMetadata = errors.New("no print time or filament weight found")

// Metadata holds the figures read from a sliced file.
type Metadata struct {
	Hours    int     `json:"hours"`
	Minutes  int     `json:"minutes"`
	Grams    float64 `json:"grams"`
	Found    bool    `json:"found"`
	Filename string  `json:"filename,omitempty"`
}

var (
	// Bambu Studio: "; total estimated time: 11h 36m 26s"
	timeBambu = regexp.MustCompile(`total estimated time\s*[:=]\s*(?:(\d+)d\s*)?(?:(\d+)h\s*)?(?:(\d+)m\s*)?`)
	// PrusaSlicer: "; estimated printing time = 5h 23m 10s"
	timePrusa = regexp.MustCompile(`estimated printing time\s*=\s*(?:(\d+)d\s*)?(?:(\d+)h\s*)?(?:(\d+)m\s*)?`)
	// OrcaSlicer and others: "; estimated printing time: 1h 2m 3s"
	timeGeneric = regexp.MustCompile(`estimated printing time\s*[:=]\s*(?:(\d+)d\s*)?(?:(\d+)h\s*)?(?:(\d+)m\s*)?`)

	weightBambu = regexp.MustCompile(`total filament weight \[g\]\s*[:=]\s*(\d+\.?\d*)`)
	weightPrusa = regexp.MustCompile(`filament used \[g\]\s*=\s*(\d+\.?\d*)`)

	jobSuffix = regexp.MustCompile(`(?i)\.(gcode|3mf|txt)$`)
)

func firstMatch(text string, patterns ...*regexp.Regexp) []string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m
		}
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Parse reads time and weight from slicer text. Days are folded into hours.
func Parse(text string) Metadata {
	var m Metadata

	if match := firstMatch(text, timeBambu, timePrusa, timeGeneric); match != nil {
		m.Hours = atoi(match[2]) + atoi(match[1])*24
		m.Minutes = atoi(match[3])
		m.Found = true
	}

	if match := firstMatch(text, weightBambu, weightPrusa); match != nil {
		m.Grams = pricing.ParseLenientNumber(match[1])
		m.Found = true
	}

	return m
}

// ParseFile parses a G-code, text or 3MF file. 3MF archives are searched for
// Metadata/slice_info.config, then any .gcode entry, then
// Metadata/model_settings.config.
func ParseFile(name string, data []byte) (Metadata, error) {
	text := string(data)
	if strings.EqualFold(path.Ext(name), ".3mf") {
		var err error
		text, err = textFrom3MF(data)
		if err != nil {
			return Metadata{}, fmt.Errorf("read 3mf %s: %w", name, err)
		}
	}

	m := Parse(text)
	m.Filename = name
	if !m.Found {
		return m, ErrNoMetadata
	}
	return m, nil
}

func textFrom3MF(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}

	if text, ok, err := readEntry(zr, func(n string) bool { return n == "Metadata/slice_info.config" }); ok || err != nil {
		return text, err
	}
	if text, ok, err := readEntry(zr, func(n string) bool { return strings.HasSuffix(n, ".gcode") }); ok || err != nil {
		return text, err
	}
	if text, ok, err := readEntry(zr, func(n string) bool { return n == "Metadata/model_settings.config" }); ok || err != nil {
		return text, err
	}
	return "", nil
}

// readEntry returns the content of the last entry matching want.
func readEntry(zr *zip.Reader, want func(string) bool) (string, bool, error) {
	var found *zip.File
	for _, f := range zr.File {
		if want(f.Name) {
			found = f
		}
	}
	if found == nil {
		return "", false, nil
	}

	rc, err := found.Open()
	if err != nil {
		return "", false, fmt.Errorf("open %s: %w", found.Name, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", found.Name, err)
	}
	if len(b) == 0 {
		return "", false, nil
	}
	return string(b), true, nil
}

// Apply copies the extracted figures into in. The job name becomes the file
// name without its extension. Nothing changes when no metadata was found.
func (m Metadata) Apply(in pricing.JobInputs) pricing.JobInputs {
	if !m.Found {
		return in
	}
	in.PrintHours = pricing.N(float64(m.Hours))
	in.PrintMinutes = pricing.N(float64(m.Minutes))
	in.MaterialGrams = pricing.N(m.Grams)
	if name := jobSuffix.ReplaceAllString(path.Base(m.Filename), ""); m.Filename != "" && name != "" {
		in.Name = name
	}
	return in
}
