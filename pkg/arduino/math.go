// Arduino math helpers
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package arduino provides the constants and pure helper functions of the
// Arduino core library for sketches written in Go.
package arduino

import "golang.org/x/exp/constraints"

// Number is any integer or floating point type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Constrain limits v to [lo, hi].
func Constrain[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Map re-maps v from [inMin, inMax] to [outMin, outMax] with the same
// integer arithmetic as the Arduino core. Values are not clamped. An empty
// input range yields outMin.
func Map[T Number](v, inMin, inMax, outMin, outMax T) T {
	if inMax == inMin {
		return outMin
	}
	return (v-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Abs returns |x|.
func Abs[T constraints.Signed | constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Sq returns x*x.
func Sq[T Number](x T) T {
	return x * x
}
