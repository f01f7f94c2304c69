package yourls

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/config"
	"github.com/sirupsen/logrus"
)

// Client wraps the YOURLS API
type Client struct {
	endpoint   string
	signature  string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new YOURLS client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.YourlsEndpoint == "" {
		return nil, fmt.Errorf("YOURLS endpoint is required")
	}

	return &Client{
		endpoint:   cfg.YourlsEndpoint,
		signature:  cfg.YourlsSignature,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// ConflictError is returned when a short URL cannot be created. ShortURL holds
// the pre-existing short URL when the server reported one.
type ConflictError struct {
	Keyword  string
	ShortURL string
	Message  string
}

func (e *ConflictError) Error() string {
	if e.ShortURL != "" {
		return fmt.Sprintf("url already shortened as %s", e.ShortURL)
	}
	return fmt.Sprintf("ERROR keyword: %s already exists", e.Keyword)
}

// apiResponse covers the fields shared by every action
type apiResponse struct {
	Status     string `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	ShortURL   string `json:"shorturl"`
	StatusCode int    `json:"statusCode"`
}

// call posts an action and returns the raw body. Non-2xx statuses still
// return the body since YOURLS reports failures as JSON with an error status.
func (c *Client) call(ctx context.Context, action string, params url.Values) ([]byte, int, error) {
	form := url.Values{}
	for k, v := range params {
		form[k] = v
	}
	form.Set("action", action)
	form.Set("format", "json")
	form.Set("signature", c.signature)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.WithField("action", action).Debug("Making YOURLS API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusForbidden {
		return nil, resp.StatusCode, fmt.Errorf("YOURLS %s failed with status %d: %s", action, resp.StatusCode, string(body))
	}

	return body, resp.StatusCode, nil
}

func decode(action string, body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode YOURLS %s response: %w", action, err)
	}
	return nil
}
