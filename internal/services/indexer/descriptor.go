package indexer

import (
	"fmt"
	"strings"

	"github.com/anacrolix/torrent/bencode"
)

// RewriteAnnounce replaces every occurrence of placeholder in the announce
// URL of a bencoded descriptor with passkey. Every other key is re-encoded
// from its original bytes.
func RewriteAnnounce(data []byte, placeholder, passkey string) ([]byte, error) {
	if placeholder == "" {
		return nil, fmt.Errorf("empty placeholder passkey")
	}

	var dict map[string]bencode.Bytes
	if err := bencode.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("failed to decode descriptor: %w", err)
	}

	raw, ok := dict["announce"]
	if !ok {
		return nil, fmt.Errorf("descriptor has no announce field")
	}

	var announce string
	if err := bencode.Unmarshal(raw, &announce); err != nil {
		return nil, fmt.Errorf("failed to decode announce field: %w", err)
	}

	encoded, err := bencode.Marshal(strings.ReplaceAll(announce, placeholder, passkey))
	if err != nil {
		return nil, fmt.Errorf("failed to encode announce field: %w", err)
	}
	dict["announce"] = encoded

	out, err := bencode.Marshal(dict)
	if err != nil {
		return nil, fmt.Errorf("failed to encode descriptor: %w", err)
	}
	return out, nil
}
