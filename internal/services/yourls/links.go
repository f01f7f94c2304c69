package yourls

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Link maps a keyword to its long URL
type Link struct {
	Keyword  string `json:"keyword"`
	URL      string `json:"url"`
	ShortURL string `json:"shorturl"`
	Title    string `json:"title"`
}

// List returns every short URL known to the server
func (c *Client) List(ctx context.Context) ([]Link, error) {
	body, status, err := c.call(ctx, "list", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("YOURLS list failed with status %d: %s", status, string(body))
	}

	var result struct {
		Links  []Link `json:"links"`
		Result []Link `json:"result"`
	}
	if err := decode("list", body, &result); err != nil {
		return nil, err
	}

	links := append(result.Links, result.Result...)
	c.logger.WithField("count", len(links)).Debug("Fetched short URL mapping")
	return links, nil
}

// Shorten creates a short URL for longURL under keyword. A refused keyword
// or an already shortened URL yields a *ConflictError.
func (c *Client) Shorten(ctx context.Context, longURL, keyword string) (string, error) {
	params := url.Values{}
	params.Set("url", longURL)
	params.Set("keyword", keyword)

	body, _, err := c.call(ctx, "shorturl", params)
	if err != nil {
		return "", err
	}

	var resp apiResponse
	if err := decode("shorturl", body, &resp); err != nil {
		return "", err
	}

	if resp.Status != "success" {
		c.logger.WithFields(map[string]interface{}{
			"keyword": keyword,
			"code":    resp.Code,
			"message": resp.Message,
		}).Warn("YOURLS refused short URL")
		return "", &ConflictError{Keyword: keyword, ShortURL: resp.ShortURL, Message: resp.Message}
	}

	c.logger.WithFields(map[string]interface{}{
		"keyword":  keyword,
		"shorturl": resp.ShortURL,
	}).Info("Created short URL")
	return resp.ShortURL, nil
}

// Delete removes the short URL of keyword
func (c *Client) Delete(ctx context.Context, keyword string) error {
	params := url.Values{}
	params.Set("shorturl", keyword)

	body, status, err := c.call(ctx, "delete", params)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		var resp apiResponse
		_ = decode("delete", body, &resp)
		return fmt.Errorf("failed to delete %s: %s (status %d)", keyword, resp.Message, status)
	}

	c.logger.WithField("keyword", keyword).Info("Deleted short URL")
	return nil
}
