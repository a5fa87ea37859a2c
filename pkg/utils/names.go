package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxNameLength caps display names shown in leaderboards, in runes.
const MaxNameLength = 32

// CompressAllWhitespace replaces all whitespace sequences (including newlines) with a single space.
func CompressAllWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SanitizeName folds compatibility characters, drops control and format
// characters and collapses whitespace so a name renders on one line.
func SanitizeName(s string) string {
	t := transform.Chain(
		norm.NFKC,
		runes.Remove(runes.In(unicode.Cc)),
		runes.Remove(runes.In(unicode.Cf)),
	)

	// Whitespace controls become spaces before the Cc class is removed
	result, _, err := transform.String(t, CompressAllWhitespace(s))
	if err != nil {
		result = s
	}

	result = CompressAllWhitespace(result)
	if utf8.RuneCountInString(result) > MaxNameLength {
		r := []rune(result)
		result = string(r[:MaxNameLength-1]) + "…"
	}

	return result
}

// DisplayName picks the best name Telegram gives for a user: first and last
// name, then the username, then a fallback built from the ID.
func DisplayName(firstName, lastName, userName, fallback string) string {
	if name := SanitizeName(firstName + " " + lastName); name != "" {
		return name
	}

	if name := SanitizeName(userName); name != "" {
		return "@" + name
	}

	return fallback
}
