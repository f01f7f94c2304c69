package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderPasskey(t *testing.T) {
	a, err := PlaceholderPasskey()
	require.NoError(t, err)
	b, err := PlaceholderPasskey()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{32}$`), a)
	assert.NotEqual(t, a, b)
}

func TestRandomKeyword(t *testing.T) {
	for i := 0; i < 20; i++ {
		keyword, err := RandomKeyword()
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{5}$`), keyword)
	}
}

func TestRandomKeywordDigitCountVaries(t *testing.T) {
	counts := make(map[int]bool)
	for i := 0; i < 500; i++ {
		keyword, err := RandomKeyword()
		require.NoError(t, err)

		digits := 0
		for _, r := range keyword {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		counts[digits] = true
	}

	assert.True(t, counts[0], "expected keywords without digits")
	assert.True(t, counts[2], "expected keywords with several digits")
}
