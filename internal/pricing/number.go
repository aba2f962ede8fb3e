package pricing

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Number is a numeric form value kept as the text the caller supplied.
// Values that do not parse as a finite number read as zero.
type Number string

// N formats a float64 as a Number.
func N(v float64) Number {
	return Number(strconv.FormatFloat(v, 'f', -1, 64))
}

// Float returns the lenient numeric value of n.
func (n Number) Float() float64 {
	return ParseLenientNumber(string(n))
}

// leadingNumber matches the decimal number a form value starts with.
var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseLenientNumber converts raw text to a float64. It reads the decimal
// number at the start of raw, so "12 pcs" is 12, and returns 0 for empty or
// non-numeric input and for values that overflow to infinity.
func ParseLenientNumber(raw string) float64 {
	prefix := leadingNumber.FindString(strings.TrimSpace(raw))
	if prefix == "" {
		return 0
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// MarshalJSON emits a JSON number when n parses, otherwise the raw string.
func (n Number) MarshalJSON() ([]byte, error) {
	raw := strings.TrimSpace(string(n))
	if raw == "" {
		return []byte("0"), nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	}
	return json.Marshal(string(n))
}

// UnmarshalJSON accepts numbers, strings and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	*n = Number(data)
	return nil
}

// UnmarshalYAML accepts any scalar node.
func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		*n = ""
		return nil
	}
	*n = Number(node.Value)
	return nil
}
