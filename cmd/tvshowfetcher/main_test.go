package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/amaumene/tvshowfetcher/internal/controllers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", "42"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 42}, ids)

	_, err = parseIDs([]string{"1", "dark"})
	assert.Error(t, err)
	_, err = parseIDs([]string{"0"})
	assert.Error(t, err)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"serve", "get-shows", "fetch-show", "download", "download-urls", "refresh-cache"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestFetchShowRequiresSelection(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"fetch-show"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	assert.ErrorContains(t, err, "give show ids")
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, "Dark S01E01", controllers.Outcome{Status: controllers.OutcomeSuccess, Title: "Dark.S01E01"})
	printOutcome(&buf, "Dark S01E02", controllers.Outcome{Status: controllers.OutcomeNoCandidate})
	printOutcome(&buf, "Dark S01E03", controllers.Outcome{Status: controllers.OutcomeError, Err: errors.New("timeout")})

	assert.Equal(t, "Dark S01E01: Dark.S01E01\nDark S01E02: no candidate found\nDark S01E03: timeout\n", buf.String())
}
