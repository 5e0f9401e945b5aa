// Package locator is the catalogue view model: filter, natural order and
// pagination over the in-memory item list, plus the reducer and session
// that keep it in sync with the database.
package locator

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
)

// splitCode separates a shelf code like "A10" into its letters ("a") and
// digits ("10", leading zeros dropped). No digits reads as "0".
func splitCode(s string) (alpha, digits string) {
	var a, d strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			d.WriteRune(r)
		} else {
			a.WriteRune(unicode.ToLower(r))
		}
	}
	digits = strings.TrimLeft(d.String(), "0")
	if digits == "" {
		digits = "0"
	}
	return a.String(), digits
}

// compareDigits orders two digit strings as integers of any length.
func compareDigits(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// CompareCode orders section and bin codes: letters first, then the digit
// run as a number, so "A2" < "A10" and "M1" < "M2" < "M10".
func CompareCode(a, b string) int {
	aa, ad := splitCode(a)
	ba, bd := splitCode(b)
	if c := strings.Compare(aa, ba); c != 0 {
		return c
	}
	if c := compareDigits(ad, bd); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// CompareRow is numeric when both rows are numbers, CompareCode otherwise.
func CompareRow(a, b string) int {
	an, aerr := strconv.Atoi(strings.TrimSpace(a))
	bn, berr := strconv.Atoi(strings.TrimSpace(b))
	if aerr == nil && berr == nil {
		return cmp.Compare(an, bn)
	}
	return CompareCode(a, b)
}

// Compare is the shelf order: section, row, bin, then name and id so the
// order is total.
func Compare(a, b catalog.Item) int {
	if c := CompareCode(a.Section, b.Section); c != 0 {
		return c
	}
	if c := CompareRow(a.Row, b.Row); c != 0 {
		return c
	}
	if c := CompareCode(a.Bin, b.Bin); c != 0 {
		return c
	}
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort orders items in place.
func Sort(items []catalog.Item) {
	slices.SortStableFunc(items, Compare)
}
