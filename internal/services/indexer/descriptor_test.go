package indexer

import (
	"testing"

	"github.com/anacrolix/torrent/bencode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteAnnounce(t *testing.T) {
	original, err := bencode.Marshal(map[string]interface{}{
		"announce":   "https://tracker.example/FAKEKEY/announce?x=FAKEKEY",
		"created by": "mktorrent 1.1",
		"info": map[string]interface{}{
			"name":         "Show.S01E01.mkv",
			"piece length": 262144,
			"pieces":       "0123456789abcdefghij",
			"length":       1024,
		},
	})
	require.NoError(t, err)

	rewritten, err := RewriteAnnounce(original, "FAKEKEY", "realkey")
	require.NoError(t, err)

	var got map[string]bencode.Bytes
	require.NoError(t, bencode.Unmarshal(rewritten, &got))

	var announce string
	require.NoError(t, bencode.Unmarshal(got["announce"], &announce))
	assert.Equal(t, "https://tracker.example/realkey/announce?x=realkey", announce)

	var before map[string]bencode.Bytes
	require.NoError(t, bencode.Unmarshal(original, &before))
	assert.Equal(t, before["info"], got["info"])
	assert.Equal(t, before["created by"], got["created by"])
}

func TestRewriteAnnounceErrors(t *testing.T) {
	_, err := RewriteAnnounce([]byte("not bencode"), "a", "b")
	assert.Error(t, err)

	noAnnounce, err := bencode.Marshal(map[string]string{"comment": "x"})
	require.NoError(t, err)
	_, err = RewriteAnnounce(noAnnounce, "a", "b")
	assert.Error(t, err)

	_, err = RewriteAnnounce(noAnnounce, "", "b")
	assert.Error(t, err)
}
