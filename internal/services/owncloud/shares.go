package owncloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	sharesPath = "/ocs/v1.php/apps/files_sharing/api/v1/shares"

	// shareTypePublicLink is the OCS share type of public links
	shareTypePublicLink = 3

	ocsStatusOK       = 100
	ocsStatusNotFound = 404
)

// Share is a share of a remote path
type Share struct {
	ID        json.Number `json:"id"`
	ShareType int         `json:"share_type"`
	Path      string      `json:"path"`
	Token     string      `json:"token"`
	URL       string      `json:"url"`
}

type ocsMeta struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statuscode"`
	Message    string `json:"message"`
}

// GetShares returns the shares of a path, or none when the path has no share
func (c *Client) GetShares(ctx context.Context, p string) ([]Share, error) {
	params := url.Values{}
	params.Set("path", "/"+cleanPath(p))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.server+sharesPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var data []Share
	meta, err := c.doOCS(req, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to get shares of %s: %w", p, err)
	}
	switch meta.StatusCode {
	case ocsStatusOK:
		return data, nil
	case ocsStatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("failed to get shares of %s: %s (%d)", p, meta.Message, meta.StatusCode)
	}
}

// CreatePublicLink shares a path with a public link
func (c *Client) CreatePublicLink(ctx context.Context, p string) (*Share, error) {
	form := url.Values{}
	form.Set("path", "/"+cleanPath(p))
	form.Set("shareType", fmt.Sprint(shareTypePublicLink))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+sharesPath+"?format=json", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var share Share
	meta, err := c.doOCS(req, &share)
	if err != nil {
		return nil, fmt.Errorf("failed to share %s: %w", p, err)
	}
	if meta.StatusCode != ocsStatusOK {
		return nil, fmt.Errorf("failed to share %s: %s (%d)", p, meta.Message, meta.StatusCode)
	}

	c.logger.WithField("path", p).Info("Created public link")
	return &share, nil
}

// doOCS sends an authenticated OCS request and decodes its data element
func (c *Client) doOCS(req *http.Request, data interface{}) (*ocsMeta, error) {
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("OCS-APIRequest", "true")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("OCS request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		OCS struct {
			Meta ocsMeta         `json:"meta"`
			Data json.RawMessage `json:"data"`
		} `json:"ocs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode OCS response: %w", err)
	}

	meta := &envelope.OCS.Meta
	if meta.StatusCode == ocsStatusOK && len(envelope.OCS.Data) > 0 {
		if err := json.Unmarshal(envelope.OCS.Data, data); err != nil {
			return nil, fmt.Errorf("failed to decode OCS data: %w", err)
		}
	}
	return meta, nil
}
