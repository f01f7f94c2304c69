package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanShowName(t *testing.T) {
	assert.Equal(t, "Show A", CleanShowName("Show A (2020)"))
	assert.Equal(t, "Show B and Co", CleanShowName("Show B & Co"))
	assert.Equal(t, "Law and Order", CleanShowName("Law & Order (1990)"))
	assert.Equal(t, "Plain", CleanShowName("  Plain "))
	assert.Equal(t, "Show (20)", CleanShowName("Show (20)"))
}

func TestEpisodeLabel(t *testing.T) {
	assert.Equal(t, "Show S01E02", EpisodeLabel("Show", 1, 2))
	assert.Equal(t, "Show S10E100", EpisodeLabel("Show", 10, 100))
}
