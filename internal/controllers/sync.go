package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/metrics"
	"github.com/amaumene/tvshowfetcher/internal/models"
	"github.com/amaumene/tvshowfetcher/internal/services/catalog"
	"github.com/amaumene/tvshowfetcher/internal/utils"
	"github.com/sirupsen/logrus"
)

const airDateLayout = "2006-01-02"

// CatalogSource is the remote catalog the local mirror is reconciled against
type CatalogSource interface {
	GetProfile(ctx context.Context) ([]catalog.RemoteShow, error)
	GetShowEpisodes(ctx context.Context, showID int64) ([]catalog.RemoteEpisode, error)
}

// SyncOptions tunes how catalog data is mirrored
type SyncOptions struct {
	Actor string
	// TrustRemoteAired takes the aired flag from the catalog instead of
	// deriving it from the air date. A missing date still forces false.
	TrustRemoteAired bool
}

// SyncController handles synchronization with the catalog
type SyncController struct {
	db      *models.Database
	catalog CatalogSource
	opts    SyncOptions
	metrics *metrics.Metrics
	logger  *logrus.Logger
	now     func() time.Time
}

// NewSyncController creates a new sync controller
func NewSyncController(db *models.Database, source CatalogSource, opts SyncOptions, m *metrics.Metrics, logger *logrus.Logger) *SyncController {
	return &SyncController{
		db:      db,
		catalog: source,
		opts:    opts,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// SyncCatalog refreshes the show list then the episodes of enabled shows
func (c *SyncController) SyncCatalog(ctx context.Context) error {
	c.logger.Info("Starting catalog sync")

	if _, err := c.SyncShows(ctx); err != nil {
		return err
	}
	if _, err := c.SyncEnabled(ctx); err != nil {
		return err
	}

	c.logger.Info("Catalog sync completed")
	return nil
}

// SyncShows mirrors the followed shows. Only the name is written so the
// enabled flag of known shows is preserved and new shows start disabled.
func (c *SyncController) SyncShows(ctx context.Context) (int, error) {
	remote, err := c.catalog.GetProfile(ctx)
	if err != nil {
		c.metrics.SyncTotal.WithLabelValues("shows", "error").Inc()
		return 0, fmt.Errorf("failed to sync shows: %w", err)
	}

	c.logger.WithField("count", len(remote)).Debug("Retrieved followed shows")

	for _, show := range remote {
		desired := models.Fields{"name": utils.CleanShowName(show.Name)}
		if _, _, err := models.Upsert[models.Show](c.db, show.ID, desired, c.opts.Actor); err != nil {
			c.metrics.SyncTotal.WithLabelValues("shows", "error").Inc()
			return 0, fmt.Errorf("failed to store show %d: %w", show.ID, err)
		}
	}

	c.metrics.SyncTotal.WithLabelValues("shows", "success").Inc()
	c.metrics.SyncedRecords.WithLabelValues(string(models.KindShow)).Add(float64(len(remote)))
	c.logger.WithField("count", len(remote)).Info("Shows synced")
	return len(remote), nil
}

// SyncEpisodes mirrors the episodes of one show. The downloaded flag is never written.
func (c *SyncController) SyncEpisodes(ctx context.Context, show *models.Show) (int, error) {
	remote, err := c.catalog.GetShowEpisodes(ctx, show.ID)
	if err != nil {
		c.metrics.SyncTotal.WithLabelValues("episodes", "error").Inc()
		return 0, fmt.Errorf("failed to sync episodes of %s: %w", show.Name, err)
	}

	today := truncateDay(c.now())
	for _, ep := range remote {
		date, aired := c.airState(ep, today)
		desired := models.Fields{
			"show_id":   show.ID,
			"show_name": show.Name,
			"season":    ep.Season,
			"number":    ep.Number,
			"name":      ep.Name,
			"watched":   ep.Seen,
			"date":      date,
			"aired":     aired,
		}
		if _, _, err := models.Upsert[models.Episode](c.db, ep.ID, desired, c.opts.Actor); err != nil {
			c.metrics.SyncTotal.WithLabelValues("episodes", "error").Inc()
			return 0, fmt.Errorf("failed to store episode %d of %s: %w", ep.ID, show.Name, err)
		}
	}

	c.metrics.SyncTotal.WithLabelValues("episodes", "success").Inc()
	c.metrics.SyncedRecords.WithLabelValues(string(models.KindEpisode)).Add(float64(len(remote)))
	c.logger.WithFields(logrus.Fields{
		"show":  show.Name,
		"count": len(remote),
	}).Info("Episodes synced")
	return len(remote), nil
}

// SyncEnabled mirrors the episodes of every enabled show
func (c *SyncController) SyncEnabled(ctx context.Context) (int, error) {
	shows, err := c.db.GetEnabledShows()
	if err != nil {
		return 0, fmt.Errorf("failed to load enabled shows: %w", err)
	}
	return c.syncShowEpisodes(ctx, shows)
}

// SyncAll mirrors the episodes of every known show
func (c *SyncController) SyncAll(ctx context.Context) (int, error) {
	shows, err := c.db.GetAllShows()
	if err != nil {
		return 0, fmt.Errorf("failed to load shows: %w", err)
	}
	return c.syncShowEpisodes(ctx, shows)
}

// SyncShowsByID mirrors the episodes of the given shows, ignoring unknown ids
func (c *SyncController) SyncShowsByID(ctx context.Context, ids []int64) (int, error) {
	shows, err := c.db.GetShows(ids)
	if err != nil {
		return 0, fmt.Errorf("failed to load shows: %w", err)
	}
	return c.syncShowEpisodes(ctx, shows)
}

func (c *SyncController) syncShowEpisodes(ctx context.Context, shows []*models.Show) (int, error) {
	total := 0
	for _, show := range shows {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := c.SyncEpisodes(ctx, show)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// airState derives the stored date and aired flag of a remote episode
func (c *SyncController) airState(ep catalog.RemoteEpisode, today time.Time) (*time.Time, bool) {
	if ep.AirDate == nil {
		return nil, false
	}

	parsed, err := time.Parse(airDateLayout, *ep.AirDate)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"episode_id": ep.ID,
			"air_date":   *ep.AirDate,
		}).Warn("Unparseable air date, treating episode as unaired")
		return nil, false
	}

	if c.opts.TrustRemoteAired {
		return &parsed, ep.Aired
	}
	return &parsed, !parsed.After(today)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
