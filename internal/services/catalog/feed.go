package catalog

import (
	"context"
	"fmt"
)

// RemoteShow is a show entry of the user profile
type RemoteShow struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RemoteEpisode is an episode entry of a show feed. AirDate is kept raw since
// the catalog sends empty or malformed values for unannounced episodes.
type RemoteEpisode struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Season int    `json:"season_number"`
	Number int    `json:"number"`
	// AirDate is a pointer so that JSON null stays distinguishable from ""
	AirDate *string `json:"air_date"`
	Seen    bool    `json:"seen"`
	Aired   bool    `json:"aired"`
}

// GetProfile retrieves the shows followed by the configured user
func (c *Client) GetProfile(ctx context.Context) ([]RemoteShow, error) {
	fullURL := fmt.Sprintf("%s/%s/profile", c.userURL, c.userID)

	var profile struct {
		Shows []RemoteShow `json:"shows"`
	}
	if err := c.doRequest(ctx, fullURL, &profile); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile.Shows, nil
}

// GetShowEpisodes retrieves the episode feed of a show. A feed without an
// episodes key yields no episodes.
func (c *Client) GetShowEpisodes(ctx context.Context, showID int64) ([]RemoteEpisode, error) {
	fullURL := fmt.Sprintf("%s/%d/data/en", c.showURL, showID)

	var data struct {
		Episodes []RemoteEpisode `json:"episodes"`
	}
	if err := c.doRequest(ctx, fullURL, &data); err != nil {
		return nil, fmt.Errorf("failed to get episodes of show %d: %w", showID, err)
	}

	return data.Episodes, nil
}
