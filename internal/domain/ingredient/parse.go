// Package ingredient parses recipe ingredient lines such as "1/2 cup banana".
package ingredient

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Units recognised in the second position of a line.
const (
	UnitTsp   = "tsp"
	UnitTbsp  = "tbsp"
	UnitCup   = "cup"
	UnitWhole = "whole"
)

// Catalog values are per cup; spoons convert to cups.
const (
	tspPerCup  = 48
	tbspPerCup = 16
)

// Line is a parsed ingredient line.
type Line struct {
	Raw       string
	AmountStr string
	Amount    float64
	Unit      string
	Name      string
}

// Parse splits a line into amount, unit and name.
//
// The second token is the unit when it is a known unit or all digits;
// otherwise the unit defaults to "whole" and the name starts at the second token.
func Parse(raw string) (Line, error) {
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return Line{}, ErrEmptyLine
	}

	line := Line{Raw: raw, AmountStr: parts[0]}

	if len(parts) > 1 && isUnit(parts[1]) {
		line.Unit = parts[1]
		line.Name = strings.Join(parts[2:], " ")
	} else {
		line.Unit = UnitWhole
		line.Name = strings.Join(parts[1:], " ")
	}
	if line.Name == "" {
		return Line{}, fmt.Errorf("%w in %q", ErrMissingName, raw)
	}

	amount, err := ParseAmount(line.AmountStr)
	if err != nil {
		return Line{}, err
	}
	line.Amount = amount
	return line, nil
}

// Multiplier scales per-cup (or per-item) catalog values to this line.
func (l Line) Multiplier() float64 {
	switch l.Unit {
	case UnitTsp:
		return l.Amount / tspPerCup
	case UnitTbsp:
		return l.Amount / tbspPerCup
	default:
		return l.Amount
	}
}

// ParseAmount accepts a decimal ("1.5") or a simple fraction ("1/2").
// Every part must be finite: "inf" and "nan" parse as floats but are rejected.
func ParseAmount(s string) (float64, error) {
	num, den, isFraction := strings.Cut(s, "/")
	n, ok := parseFinite(num)
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrInvalidAmount, s)
	}
	if !isFraction {
		return n, nil
	}
	d, ok := parseFinite(den)
	if !ok || d == 0 || math.IsInf(n/d, 0) {
		return 0, fmt.Errorf("%w %q", ErrInvalidAmount, s)
	}
	return n / d, nil
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func isUnit(tok string) bool {
	switch tok {
	case UnitTsp, UnitTbsp, UnitCup, UnitWhole:
		return true
	}
	return isDigits(tok)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
