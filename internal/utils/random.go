package utils

import (
	"fmt"

	"github.com/sethvargo/go-password/password"
)

// PlaceholderPasskey returns a 32 character alphanumeric token that stands in
// for the real passkey when a descriptor is requested from the indexer
func PlaceholderPasskey() (string, error) {
	key, err := password.Generate(32, 10, 0, false, true)
	if err != nil {
		return "", fmt.Errorf("failed to generate placeholder passkey: %w", err)
	}
	return key, nil
}

const keywordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// keywordGenerator draws every character uniformly from [a-z0-9]
var keywordGenerator = mustGenerator(&password.GeneratorInput{
	LowerLetters: keywordAlphabet,
	Digits:       "0123456789",
	Symbols:      "-",
})

func mustGenerator(input *password.GeneratorInput) *password.Generator {
	gen, err := password.NewGenerator(input)
	if err != nil {
		panic(err)
	}
	return gen
}

// RandomKeyword returns a 5 character lowercase alphanumeric short URL keyword
func RandomKeyword() (string, error) {
	keyword, err := keywordGenerator.Generate(5, 0, 0, true, true)
	if err != nil {
		return "", fmt.Errorf("failed to generate keyword: %w", err)
	}
	return keyword, nil
}
