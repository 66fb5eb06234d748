// Package core provides money parsing and handling utilities.
//
// This file contains the cell parser used for every currency cell read from
// a spreadsheet. Cells are human-edited, so parsing is split in two: ParseAmount
// reports what went wrong and AmountOrZero is the fail-soft variant callers use
// when a malformed cell must not abort a whole fetch.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// currencyTokens are removed before numeric parsing. Longer tokens first so
// "INR" is stripped before "Rs" could match a prefix of something else.
var currencyTokens = []string{"INR", "USD", "Rs.", "Rs", "₹", "$", "€", "£"}

// ParseAmount converts a locale-formatted currency cell into a decimal.
//
// It strips currency glyphs, thousands separators and surrounding whitespace
// and accepts accounting negatives written in parentheses. No rounding is
// applied. Empty or non-numeric input returns ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("₹1,23,456.50") -> 123456.50, nil
//	ParseAmount("$ 2,000")      -> 2000, nil
//	ParseAmount("(1,500)")      -> -1500, nil
//	ParseAmount("n/a")          -> 0, ErrInvalidAmount
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	// A sign may sit on either side of a stripped glyph ("-₹500" or "₹-500").
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if s == "" || strings.ContainsAny(s, "+-eE") {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// AmountOrZero parses raw and defaults to zero on any parse failure.
func AmountOrZero(raw string) decimal.Decimal {
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SumAmounts adds a list of amounts.
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Percent returns part/whole*100 rounded to two decimals, or 0 when whole is
// zero.
func Percent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
