package utils

import (
	"regexp"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SafeFilename turns arbitrary text into an ASCII token usable as a file name.
// Accents are stripped after NFKD decomposition; anything else outside
// [A-Za-z0-9._-] becomes "_". SafeFilename(SafeFilename(s)) == SafeFilename(s).
func SafeFilename(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return unsafeFilenameChars.ReplaceAllString(stripped, "_")
}
