// Character classification helpers
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package arduino

// Character classification over the ASCII range, matching the C <ctype.h>
// functions in the "C" locale. Bytes >= 0x80 belong to no class.

func IsAlpha(c byte) bool { return IsUpperCase(c) || IsLowerCase(c) }
func IsAlphaNumeric(c byte) bool { return IsAlpha(c) || IsDigit(c) }
func IsAscii(c byte) bool { return c < 0x80 }
func IsControl(c byte) bool { return c < 0x20 || c == 0x7F }
func IsDigit(c byte) bool { return c >= '0' && c <= '9' }
func IsGraph(c byte) bool { return c > ' ' && c < 0x7F }
func IsLowerCase(c byte) bool { return c >= 'a' && c <= 'z' }
func IsUpperCase(c byte) bool { return c >= 'A' && c <= 'Z' }
func IsPrintable(c byte) bool { return c >= ' ' && c < 0x7F }
func IsPunct(c byte) bool { return IsGraph(c) && !IsAlphaNumeric(c) }

// IsSpace reports space, \t, \n, \v, \f and \r.
func IsSpace(c byte) bool {
	return c == ' ' || (c >= '\t' && c <= '\r')
}

// IsWhitespace is an alias of IsSpace.
func IsWhitespace(c byte) bool { return IsSpace(c) }

// IsHexadecimalDigit reports 0-9, a-f and A-F.
func IsHexadecimalDigit(c byte) bool {
	return IsDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
