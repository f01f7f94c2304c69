package controllers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/metrics"
	"github.com/sirupsen/logrus"
)

// CleanupController removes temporary descriptors left by acquisitions
type CleanupController struct {
	tempDir string
	maxAge  time.Duration
	metrics *metrics.Metrics
	logger  *logrus.Logger
	now     func() time.Time
}

// NewCleanupController creates a new cleanup controller
func NewCleanupController(tempDir string, maxAge time.Duration, m *metrics.Metrics, logger *logrus.Logger) *CleanupController {
	return &CleanupController{
		tempDir: tempDir,
		maxAge:  maxAge,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// PurgeTempDescriptors deletes descriptors of the temp dir older than the
// configured max age. A missing temp dir is not an error.
func (c *CleanupController) PurgeTempDescriptors(ctx context.Context) (int, error) {
	c.logger.Info("Starting cleanup of temporary descriptors")

	entries, err := os.ReadDir(c.tempDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read temp dir: %w", err)
	}

	cutoff := c.now().Add(-c.maxAge)
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".torrent") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			c.logger.WithError(err).WithField("file", entry.Name()).Warn("Failed to stat temporary descriptor")
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(c.tempDir, entry.Name())
		if err := os.Remove(path); err != nil {
			c.logger.WithError(err).WithField("file", path).Warn("Failed to remove temporary descriptor")
			continue
		}
		removed++
		c.logger.WithFields(logrus.Fields{
			"file": entry.Name(),
			"age":  c.now().Sub(info.ModTime()).Round(time.Minute).String(),
		}).Debug("Removed temporary descriptor")
	}

	c.metrics.PurgedDescriptors.Add(float64(removed))
	c.logger.WithField("removed", removed).Info("Cleanup of temporary descriptors completed")
	return removed, nil
}
