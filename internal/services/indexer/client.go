package indexer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/config"
	"github.com/sirupsen/logrus"
)

const userAgent = "tvshowfetcher/1.0"

// StatusError is returned when the indexer answers with a non-2xx status
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("indexer %s returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client wraps direct indexer API HTTP calls
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new indexer client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.IndexerURL == "" {
		return nil, fmt.Errorf("indexer URL is required")
	}
	if _, err := url.Parse(cfg.IndexerURL); err != nil {
		return nil, fmt.Errorf("invalid indexer URL: %w", err)
	}

	return &Client{
		baseURL: cfg.IndexerURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}, nil
}

// get issues a GET against path with params. The caller owns the response body.
func (c *Client) get(ctx context.Context, op, path string, params url.Values) (*http.Response, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indexer %s request failed: %w", op, err)
	}
	return resp, nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
}
