package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Candidate is a torrent entry returned by the indexer
type Candidate struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Seeders   int    `json:"seeders"`
	Leechers  int    `json:"leechers"`
	Downloads int    `json:"downloads"`
	Size      int64  `json:"size"`
}

// Search queries the indexer ordered by download count
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("order_by", "downloads")

	c.logger.WithField("query", query).Debug("Performing indexer search")

	resp, err := c.get(ctx, "search", "/torrents", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("search", resp)
	}

	var candidates []Candidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"count": len(candidates),
	}).Debug("Indexer search completed")

	return candidates, nil
}

// GetTorrent fetches a single candidate. It returns nil without error when the
// indexer does not know the id (404, null or empty body).
func (c *Client) GetTorrent(ctx context.Context, id int64) (*Candidate, error) {
	resp, err := c.get(ctx, "torrent", "/torrent/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("torrent", resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read torrent %d: %w", id, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}

	var candidate Candidate
	if err := json.Unmarshal(body, &candidate); err != nil {
		return nil, fmt.Errorf("failed to parse torrent %d: %w", id, err)
	}
	if candidate.ID == 0 && candidate.Title == "" {
		return nil, nil
	}
	if candidate.ID == 0 {
		candidate.ID = id
	}

	return &candidate, nil
}

// DownloadTorrent streams the descriptor of a candidate into w, authenticated with passkey
func (c *Client) DownloadTorrent(ctx context.Context, id int64, passkey string, w io.Writer) (int64, error) {
	params := url.Values{}
	params.Set("passkey", passkey)

	c.logger.WithField("torrent_id", id).Debug("Downloading torrent descriptor")

	resp, err := c.get(ctx, "download", fmt.Sprintf("/torrent/%d/download", id), params)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError("download", resp)
	}

	const maxDescriptorSize = 10 * 1024 * 1024
	n, err := io.Copy(w, io.LimitReader(resp.Body, maxDescriptorSize))
	if err != nil {
		return n, fmt.Errorf("failed to read descriptor of torrent %d: %w", id, err)
	}

	c.logger.WithFields(logrus.Fields{
		"torrent_id": id,
		"size_bytes": n,
	}).Debug("Torrent descriptor downloaded")

	return n, nil
}
