// Package bitx holds small generic helpers for masks and single-bit patterns.
package bitx

import "golang.org/x/exp/constraints"

// Count returns the number of set bits in v.
func Count[T constraints.Unsigned](v T) int {
	n := 0
	for v != 0 {
		v &= v - 1
		n++
	}
	return n
}

// Lowest isolates the lowest set bit of v (0 when v is 0).
func Lowest[T constraints.Unsigned](v T) T { return v & -v }

// WalkOnes returns one value per set bit of mask with only that bit set.
func WalkOnes[T constraints.Unsigned](mask T) []T {
	out := make([]T, 0, Count(mask))
	for m := mask; m != 0; m &= m - 1 {
		out = append(out, Lowest(m))
	}
	return out
}

// WalkZeros returns one value per set bit of mask with every other mask bit
// set and that bit clear.
func WalkZeros[T constraints.Unsigned](mask T) []T {
	ones := WalkOnes(mask)
	for i, b := range ones {
		ones[i] = mask &^ b
	}
	return ones
}

// Overlaps reports whether a and b share any bit.
func Overlaps[T constraints.Unsigned](a, b T) bool { return a&b != 0 }
