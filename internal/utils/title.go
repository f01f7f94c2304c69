package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var yearTokenRegex = regexp.MustCompile(`\(\d{4}\)`)

// CleanShowName normalises a catalog show name: "&" becomes "and" and a
// parenthesised year such as "(2020)" is dropped.
// "Show A (2020)" -> "Show A", "Show B & Co" -> "Show B and Co"
func CleanShowName(name string) string {
	name = strings.ReplaceAll(name, "&", "and")
	name = yearTokenRegex.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

// EpisodeLabel renders the display string used for an episode, e.g. "Show S01E02"
func EpisodeLabel(show string, season, number int) string {
	return fmt.Sprintf("%s S%02dE%02d", show, season, number)
}
