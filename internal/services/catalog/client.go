package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/config"
	"github.com/sirupsen/logrus"
)

// Client handles communication with the catalog API
type Client struct {
	userURL    string
	showURL    string
	userID     string
	params     map[string]string
	headers    map[string]string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new catalog API client
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	timeout := time.Duration(cfg.CatalogTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		userURL:    cfg.CatalogUserURL,
		showURL:    cfg.CatalogShowURL,
		userID:     cfg.CatalogUserID,
		params:     cfg.CatalogParams,
		headers:    cfg.CatalogHeaders,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// doRequest performs a GET against the catalog and decodes the JSON body into result
func (c *Client) doRequest(ctx context.Context, fullURL string, result interface{}) error {
	u, err := url.Parse(fullURL)
	if err != nil {
		return fmt.Errorf("invalid catalog url %q: %w", fullURL, err)
	}
	if len(c.params) > 0 {
		q := u.Query()
		for k, v := range c.params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	c.logger.WithField("url", u.Redacted()).Debug("Making catalog API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("catalog request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
