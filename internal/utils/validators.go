package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameLength is the longest display name accepted, in characters.
const MaxNameLength = 80

// NormalizeName trims a display name and collapses inner whitespace runs to
// single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// IsValidName checks that a normalized name is non-empty, not too long and
// free of control characters.
func IsValidName(name string) bool {
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return false
	}
	for _, char := range name {
		if unicode.IsControl(char) {
			return false
		}
	}
	return true
}
