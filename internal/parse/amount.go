package parse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern matches an integer or decimal number inside free text:
// 1-8 integer digits, optional fractional part of 1-3 digits, with either
// '.' or ',' as the decimal separator.
var amountPattern = regexp.MustCompile(`\b\d{1,8}(?:[.,]\d{1,3})?\b`)

// Amount extracts the last monetary amount from a free-text note.
// Operators append corrections to the note, so the last number is the one
// that counts. The separator is normalized to '.' and the value truncated
// (not rounded) to two decimals. Returns false when the note is empty or
// contains no number; callers treat that as "no amount found", not an error.
func Amount(note string) (decimal.Decimal, bool) {
	if note == "" {
		return decimal.Decimal{}, false
	}
	matches := amountPattern.FindAllString(note, -1)
	if len(matches) == 0 {
		return decimal.Decimal{}, false
	}
	raw := strings.ReplaceAll(matches[len(matches)-1], ",", ".")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d.Truncate(2), true
}
