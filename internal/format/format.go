// Package format renders token numbers for display. Row and detail contexts
// use separate price precision tables and must not be merged.
package format

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is the precision used by Compact.
const DefaultDecimals = 2

// fixed renders v with exactly places digits after the point.
func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// Number abbreviates large values with a B/M/K suffix and renders the rest
// literally, each with the given number of decimals.
func Number(v float64, decimals int) string {
	d := int32(decimals)
	switch {
	case v >= 1e9:
		return fixed(v/1e9, d) + "B"
	case v >= 1e6:
		return fixed(v/1e6, d) + "M"
	case v >= 1e3:
		return fixed(v/1e3, d) + "K"
	}
	return fixed(v, d)
}

// Compact is Number with DefaultDecimals.
func Compact(v float64) string { return Number(v, DefaultDecimals) }

// Count renders an integer counter with no decimals.
func Count(n int64) string { return Number(float64(n), 0) }

// RowPrice formats a price for the table row.
func RowPrice(p float64) string {
	switch {
	case p < 0.00001:
		return exponential(p, 2)
	case p < 0.01:
		return fixed(p, 6)
	case p < 1:
		return fixed(p, 4)
	}
	return fixed(p, 2)
}

// DetailPrice formats a price for the detail panel and chart labels.
func DetailPrice(p float64) string {
	switch {
	case p < 0.00001:
		return exponential(p, 4)
	case p < 0.01:
		return fixed(p, 8)
	case p < 1:
		return fixed(p, 6)
	}
	return fixed(p, 4)
}

// RowChange renders a signed percentage with one decimal, e.g. "+3.2%".
func RowChange(pct float64) string { return change(pct, 1) }

// DetailChange renders a signed percentage with two decimals, e.g. "-0.47%".
func DetailChange(pct float64) string { return change(pct, 2) }

func change(pct float64, places int32) string {
	s := fixed(pct, places)
	if pct >= 0 {
		s = "+" + s
	}
	return s + "%"
}

// exponential renders v in scientific notation with a bare exponent,
// e.g. 3e-6 with 2 digits -> "3.00e-6".
func exponential(v float64, digits int) string {
	s := strconv.FormatFloat(v, 'e', digits, 64)
	i := strings.IndexByte(s, 'e')
	if i < 0 {
		return s
	}
	mant, exp := s[:i], s[i+1:]
	sign := "+"
	if exp[0] == '-' || exp[0] == '+' {
		sign, exp = exp[:1], exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + sign + exp
}
