package common

import (
	"encoding/hex"
	"strings"
)

// HexDigits removes separators (spaces, colons, dashes, dots) from a hex dump.
func HexDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '-', '.', '\t':
			return -1
		}
		return r
	}, s)
}

// HexToPrintable decodes a hex dump such as "43 44 41 54" or "43:44:41:54"
// and keeps only printable ASCII. Text that is not valid hex is returned trimmed.
func HexToPrintable(s string) string {
	b, err := hex.DecodeString(HexDigits(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var sb strings.Builder
	for _, c := range b {
		if c >= 32 && c <= 126 { // Printable ASCII
			sb.WriteByte(c)
		}
	}
	return strings.TrimSpace(sb.String())
}

// LooksLikeHexPairs reports whether s is a colon- or space-separated list of byte pairs.
func LooksLikeHexPairs(s string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == ' ' })
	if len(fields) < 2 {
		return false
	}
	for _, f := range fields {
		if len(f) != 2 {
			return false
		}
		if _, err := hex.DecodeString(f); err != nil {
			return false
		}
	}
	return true
}
