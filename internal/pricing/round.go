// Package pricing derives product prices, margins and sale totals.
//
// Every function in this package is pure. Inputs that are missing, non
// numeric or non finite are treated as zero; see Coerce.
package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Round rounds x to the given number of decimal places, halves rounding up.
// The shift is done on the decimal representation so values such as 1.005
// round to 1.01 instead of falling prey to binary error.
func Round(x float64, places int) float64 {
	x = Finite(x)
	shifted := shiftDecimal(x, places)
	return Finite(shiftDecimal(math.Floor(shifted+0.5), -places))
}

// Round2 rounds to cents.
func Round2(x float64) float64 {
	return Round(x, 2)
}

func shiftDecimal(x float64, places int) float64 {
	if x == 0 || places == 0 {
		return x
	}
	repr := strconv.FormatFloat(x, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(repr, "e")
	e, err := strconv.Atoi(exp)
	if err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(mantissa+"e"+strconv.Itoa(e+places), 64)
	if err != nil {
		return 0
	}
	return v
}

// Finite maps NaN and the infinities to zero.
func Finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// Coerce parses a raw form value. Empty, malformed or non finite input is 0.
func Coerce(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return Finite(v)
}

// CoerceInt parses a raw integer field; fractions are truncated.
func CoerceInt(raw string) int {
	return int(math.Trunc(Coerce(raw)))
}
