// Bit and byte helpers
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package arduino

import "golang.org/x/exp/constraints"

// Bit returns the value of bit n (1 << n).
func Bit(n uint) uint32 {
	return 1 << n
}

// BitRead returns bit n of v (0 or 1).
func BitRead[T constraints.Integer](v T, n uint) T {
	return (v >> n) & 1
}

// BitSet returns v with bit n set.
func BitSet[T constraints.Integer](v T, n uint) T {
	return v | (1 << n)
}

// BitClear returns v with bit n cleared.
func BitClear[T constraints.Integer](v T, n uint) T {
	return v &^ (1 << n)
}

// BitWrite returns v with bit n set to b (any non-zero b sets it).
func BitWrite[T constraints.Integer](v T, n uint, b int) T {
	if b != 0 {
		return BitSet(v, n)
	}
	return BitClear(v, n)
}

// HighByte returns bits 8-15 of v.
func HighByte[T constraints.Integer](v T) byte {
	return byte(v >> 8)
}

// LowByte returns bits 0-7 of v.
func LowByte[T constraints.Integer](v T) byte {
	return byte(v)
}

// Word combines a high and a low byte.
func Word(high, low byte) uint16 {
	return uint16(high)<<8 | uint16(low)
}
