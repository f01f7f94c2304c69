package browser

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/cache"
	"github.com/amaumene/tvshowfetcher/internal/metrics"
	"github.com/amaumene/tvshowfetcher/internal/services/owncloud"
	"github.com/amaumene/tvshowfetcher/internal/services/yourls"
	"github.com/amaumene/tvshowfetcher/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

const (
	listKeyPrefix  = "owncloud_list::"
	shareKeyPrefix = "share::"
)

// Storage is the remote file storage browsed by the Browser
type Storage interface {
	Connect(ctx context.Context) error
	List(ctx context.Context, dir string) ([]owncloud.Entry, error)
	GetShares(ctx context.Context, p string) ([]owncloud.Share, error)
	CreatePublicLink(ctx context.Context, p string) (*owncloud.Share, error)
}

// Shortener maps long URLs to short ones
type Shortener interface {
	List(ctx context.Context) ([]yourls.Link, error)
	Shorten(ctx context.Context, longURL, keyword string) (string, error)
	Delete(ctx context.Context, keyword string) error
}

// File is a listed entry annotated with its share and short URL
type File struct {
	owncloud.Entry
	ShareURL string `json:"share_url,omitempty"`
	ShortURL string `json:"short_url,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
}

// Listing is the rendered content of one directory
type Listing struct {
	Path     string `json:"path"`
	PrevPath string `json:"prev_path"`
	Files    []File `json:"files"`
}

// ShortenResult is the outcome of a Shorten call. ShortURL holds the
// conflict message when the keyword could not be used.
type ShortenResult struct {
	Path     string `json:"path"`
	PrevPath string `json:"prev_path"`
	LongURL  string `json:"long_url"`
	ShortURL string `json:"short_url"`
	Conflict bool   `json:"conflict"`
}

// Options configures a Browser
type Options struct {
	Root    string
	ListTTL time.Duration
	Workers int
}

// Browser lists remote directories with their short links, caching listings
type Browser struct {
	storage   Storage
	shortener Shortener
	cache     cache.Cache
	opts      Options
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

// New creates a new browser
func New(storage Storage, shortener Shortener, c cache.Cache, opts Options, m *metrics.Metrics, logger *logrus.Logger) *Browser {
	if opts.Workers <= 0 {
		opts.Workers = 10
	}
	opts.Root = normalize(opts.Root)
	return &Browser{
		storage:   storage,
		shortener: shortener,
		cache:     c,
		opts:      opts,
		metrics:   m,
		logger:    logger,
	}
}

// List returns the listing of dir, from cache when still fresh
func (b *Browser) List(ctx context.Context, dir string) (*Listing, error) {
	dir = b.resolve(dir)
	key := listKey(dir)

	if cached, ok := b.cache.Get(key); ok {
		if listing, ok := cached.(*Listing); ok {
			b.metrics.BrowserCacheTotal.WithLabelValues("hit").Inc()
			return listing.clone(), nil
		}
	}
	b.metrics.BrowserCacheTotal.WithLabelValues("miss").Inc()

	listing, err := b.load(ctx, dir)
	if err != nil {
		return nil, err
	}
	b.cache.Set(key, listing, b.opts.ListTTL)
	return listing.clone(), nil
}

// load builds a listing from the remote services
func (b *Browser) load(ctx context.Context, dir string) (*Listing, error) {
	if err := b.storage.Connect(ctx); err != nil {
		return nil, err
	}
	entries, err := b.storage.List(ctx, dir)
	if err != nil {
		return nil, err
	}

	links, err := b.shortener.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch short URLs: %w", err)
	}
	byURL := make(map[string]yourls.Link, len(links))
	for _, link := range links {
		if _, seen := byURL[link.URL]; !seen {
			byURL[link.URL] = link
		}
	}

	files := make([]File, len(entries))
	p := pool.New().WithMaxGoroutines(b.opts.Workers).WithContext(ctx)
	for i, entry := range entries {
		i, entry := i, entry
		p.Go(func(ctx context.Context) error {
			file := File{Entry: entry}
			shareURL, err := b.shareURL(ctx, entry.Path)
			if err != nil {
				return err
			}
			file.ShareURL = shareURL
			if link, ok := byURL[shareURL]; ok && shareURL != "" {
				file.ShortURL = link.ShortURL
				file.Keyword = link.Keyword
			}
			files[i] = file
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve shares of %s: %w", dir, err)
	}

	b.logger.WithFields(logrus.Fields{
		"path":  dir,
		"files": len(files),
		"links": len(links),
	}).Debug("Built directory listing")

	return &Listing{Path: dir, PrevPath: b.PrevPath(dir), Files: files}, nil
}

// shareURL returns the public link URL of p, or "" when p is not shared
func (b *Browser) shareURL(ctx context.Context, p string) (string, error) {
	key := shareKey(p)
	if cached, ok := b.cache.Get(key); ok {
		if u, ok := cached.(string); ok {
			return u, nil
		}
	}

	shares, err := b.storage.GetShares(ctx, p)
	if err != nil {
		return "", err
	}
	u := ""
	if len(shares) > 0 {
		u = shares[0].URL
	}
	b.cache.Set(key, u, cache.NoExpiration)
	return u, nil
}

// Shorten creates a short URL for the public link of p, creating the link
// when p is not shared yet. An empty keyword is replaced by a random one.
func (b *Browser) Shorten(ctx context.Context, p, keyword string) (*ShortenResult, error) {
	p = b.resolve(p)
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		generated, err := utils.RandomKeyword()
		if err != nil {
			return nil, err
		}
		keyword = generated
	}

	if err := b.storage.Connect(ctx); err != nil {
		return nil, err
	}
	longURL, err := b.shareURL(ctx, p)
	if err != nil {
		return nil, err
	}
	if longURL == "" {
		share, err := b.storage.CreatePublicLink(ctx, p)
		if err != nil {
			return nil, err
		}
		longURL = share.URL
		b.cache.Set(shareKey(p), longURL, cache.NoExpiration)
	}

	result := &ShortenResult{Path: p, PrevPath: b.PrevPath(p), LongURL: longURL}

	shortURL, err := b.shortener.Shorten(ctx, longURL, keyword)
	var conflict *yourls.ConflictError
	switch {
	case errors.As(err, &conflict):
		b.metrics.ShortenTotal.WithLabelValues("conflict").Inc()
		result.Conflict = true
		result.ShortURL = conflict.ShortURL
		if result.ShortURL == "" {
			result.ShortURL = conflict.Error()
		}
	case err != nil:
		b.metrics.ShortenTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to shorten %s: %w", longURL, err)
	default:
		b.metrics.ShortenTotal.WithLabelValues("success").Inc()
		result.ShortURL = shortURL
	}

	b.Refresh(result.PrevPath)

	b.logger.WithFields(logrus.Fields{
		"path":     p,
		"keyword":  keyword,
		"shorturl": result.ShortURL,
		"conflict": result.Conflict,
	}).Info("Shortened share link")

	return result, nil
}

// Delete removes the short URL of keyword. The listing of dir is
// invalidated when dir is not empty.
func (b *Browser) Delete(ctx context.Context, keyword, dir string) error {
	if err := b.shortener.Delete(ctx, keyword); err != nil {
		return err
	}
	if strings.TrimSpace(dir) != "" {
		b.Refresh(dir)
	}
	return nil
}

// Refresh drops the cached listing of dir
func (b *Browser) Refresh(dir string) {
	dir = b.resolve(dir)
	b.cache.Delete(listKey(dir))
	b.logger.WithField("path", dir).Debug("Invalidated directory listing")
}

// Prewarm walks the tree from the root and fills the listing and share caches.
// It returns the number of directories visited.
func (b *Browser) Prewarm(ctx context.Context) (int, error) {
	b.logger.WithField("root", b.opts.Root).Info("Starting cache prewarm")

	visited := 0
	queue := []string{b.opts.Root}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return visited, err
		}
		dir := queue[0]
		queue = queue[1:]

		b.Refresh(dir)
		listing, err := b.List(ctx, dir)
		if err != nil {
			return visited, err
		}
		visited++

		for _, file := range listing.Files {
			if file.IsDir {
				queue = append(queue, file.Path)
			}
		}
	}

	b.logger.WithField("directories", visited).Info("Cache prewarm completed")
	return visited, nil
}

// PrevPath returns the parent of p, or the root for top level paths
func (b *Browser) PrevPath(p string) string {
	p = normalize(p)
	parent := path.Dir(p)
	if parent == "." || parent == "/" || p == "" {
		return b.opts.Root
	}
	return parent
}

func (b *Browser) resolve(p string) string {
	if p = normalize(p); p == "" {
		return b.opts.Root
	}
	return p
}

func (l *Listing) clone() *Listing {
	out := *l
	out.Files = append([]File(nil), l.Files...)
	return &out
}

// normalize strips surrounding slashes so "Local/" and "/Local" share a key
func normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return strings.Trim(path.Clean("/"+p), "/")
}

func listKey(p string) string {
	return listKeyPrefix + strings.TrimRight(p, "/")
}

func shareKey(p string) string {
	return shareKeyPrefix + p
}
