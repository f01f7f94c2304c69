package owncloud

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/studio-b12/gowebdav"
)

const webdavPath = "/remote.php/webdav"

// Entry is a file or directory of the remote storage
type Entry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Client talks to an ownCloud server through WebDAV and the OCS share API
type Client struct {
	dav        *gowebdav.Client
	server     string
	user       string
	password   string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new ownCloud client
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	dav := gowebdav.NewClient(cfg.OCServer+webdavPath, cfg.OCUser, cfg.OCPassword)
	dav.SetTimeout(httpClient.Timeout)

	return &Client{
		dav:        dav,
		server:     cfg.OCServer,
		user:       cfg.OCUser,
		password:   cfg.OCPassword,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Connect authenticates against the WebDAV endpoint
func (c *Client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.dav.Connect(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.server, err)
	}
	return nil
}

// List returns the entries of a directory, directories first then by name
func (c *Client) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir = cleanPath(dir)
	infos, err := c.dav.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name:    info.Name(),
			Path:    path.Join(dir, info.Name()),
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sortEntries(entries)

	c.logger.WithFields(logrus.Fields{
		"path":  dir,
		"count": len(entries),
	}).Debug("Listed remote directory")

	return entries, nil
}

// cleanPath strips surrounding slashes so paths look like "Local/sub"
func cleanPath(p string) string {
	return strings.Trim(path.Clean("/"+p), "/")
}
