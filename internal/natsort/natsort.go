// Package natsort orders names the way a file manager does: runs of digits
// compare by numeric value, everything else compares case-insensitively.
//
//	names := []string{"10.mp3", "2.mp3", "1.mp3"}
//	natsort.Sort(names) // 1.mp3, 2.mp3, 10.mp3
//
// Full-width characters are folded to their narrow forms first, so "０２"
// and "02" are the same number. Names that are still equal after folding
// are ordered by a plain byte comparison, which makes Compare a strict
// total order over distinct strings.
package natsort

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

type chunk struct {
	text  string
	digit bool
}

type key struct {
	raw    string
	chunks []chunk
}

func newKey(s string, fold cases.Caser) key {
	norm := fold.String(width.Fold.String(s))

	var chunks []chunk
	for i := 0; i < len(norm); {
		j := i
		digit := isDigit(norm[i])
		for j < len(norm) && isDigit(norm[j]) == digit {
			j++
		}
		chunks = append(chunks, chunk{text: norm[i:j], digit: digit})
		i = j
	}

	return key{raw: s, chunks: chunks}
}

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

// Compare returns -1 if a sorts before b, +1 if after and 0 only when a == b.
func Compare(a, b string) int {
	fold := cases.Fold()
	return compareKeys(newKey(a, fold), newKey(b, fold))
}

// Sort sorts names in natural order. The sort is stable.
func Sort(names []string) {
	SortFunc(names, func(s string) string { return s })
}

// SortFunc sorts s in natural order of name(v). Elements with equal names
// keep their relative order.
func SortFunc[T any](s []T, name func(T) string) {
	fold := cases.Fold()

	type entry struct {
		v T
		k key
	}
	entries := make([]entry, len(s))
	for i, v := range s {
		entries[i] = entry{v: v, k: newKey(name(v), fold)}
	}

	slices.SortStableFunc(entries, func(x, y entry) int {
		return compareKeys(x.k, y.k)
	})

	for i := range entries {
		s[i] = entries[i].v
	}
}

func compareKeys(a, b key) int {
	for i := 0; i < len(a.chunks) && i < len(b.chunks); i++ {
		if c := compareChunks(a.chunks[i], b.chunks[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(a.chunks) < len(b.chunks):
		return -1
	case len(a.chunks) > len(b.chunks):
		return 1
	}

	return strings.Compare(a.raw, b.raw)
}

func compareChunks(a, b chunk) int {
	switch {
	case a.digit && b.digit:
		return compareNumbers(a.text, b.text)
	case a.digit:
		return -1
	case b.digit:
		return 1
	default:
		return strings.Compare(a.text, b.text)
	}
}

// compareNumbers compares two digit runs by value without parsing them, so
// arbitrarily long runs never overflow. Equal values with more leading zeros
// sort last.
func compareNumbers(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")

	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
