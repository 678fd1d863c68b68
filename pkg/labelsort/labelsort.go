// Package labelsort orders label values returned by the metric catalog.
package labelsort

import (
	"sort"
	"strconv"
	"strings"
)

// Comparator orders two label values. A nil value sorts before any
// non-nil value in every mode.
type Comparator func(a, b *string) int

// ComparatorFor maps a query editor sort mode to its comparator. The
// table mirrors the editor's dropdown values, quirks included: modes 2
// and 4 carry "descending" labels but were never reversed, and mode 5
// carries a "case insensitive" label but compares raw bytes. Dashboards
// depend on the shipped ordering, so do not reverse 2 and 4 or fold 5.
// Unknown modes have no comparator and ok is false.
func ComparatorFor(mode int) (cmp Comparator, ok bool) {
	switch mode {
	case 0, 1, 2, 5:
		return alphabetical, true
	case 3, 4:
		return numeric, true
	case 6:
		return alphabeticalFolded, true
	}
	return nil, false
}

// Sort orders values in place using the comparator for mode. Values are
// left in their incoming order when the mode has no comparator.
func Sort(values []*string, mode int) {
	cmp, ok := ComparatorFor(mode)
	if !ok {
		return
	}
	sort.SliceStable(values, func(i, j int) bool {
		return cmp(values[i], values[j]) < 0
	})
}

func nullFirst(a, b *string) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, true
	case a == nil:
		return -1, true
	case b == nil:
		return 1, true
	}
	return 0, false
}

func alphabetical(a, b *string) int {
	if c, done := nullFirst(a, b); done {
		return c
	}
	return strings.Compare(*a, *b)
}

func alphabeticalFolded(a, b *string) int {
	if c, done := nullFirst(a, b); done {
		return c
	}
	return strings.Compare(strings.ToLower(*a), strings.ToLower(*b))
}

// numeric compares parsed values; entries that do not parse compare
// equal so the stable sort leaves them where they arrived.
func numeric(a, b *string) int {
	if c, done := nullFirst(a, b); done {
		return c
	}
	av, aErr := strconv.ParseFloat(*a, 64)
	bv, bErr := strconv.ParseFloat(*b, 64)
	if aErr != nil || bErr != nil {
		return 0
	}
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	}
	return 0
}
