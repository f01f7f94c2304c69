package controllers

import (
	"fmt"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/models"
	"github.com/sirupsen/logrus"
)

// SelectionScope names a set of episodes eligible for acquisition
type SelectionScope string

const (
	// ScopeDue selects to-watch episodes whose air date is today or earlier
	ScopeDue SelectionScope = "due"
	// ScopeToWatch selects aired, unwatched, not downloaded episodes of enabled shows
	ScopeToWatch SelectionScope = "to_watch"
)

// StrategyController determines which episodes should be acquired
type StrategyController struct {
	db     *models.Database
	logger *logrus.Logger
	now    func() time.Time
}

// NewStrategyController creates a new strategy controller
func NewStrategyController(db *models.Database, logger *logrus.Logger) *StrategyController {
	return &StrategyController{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Select returns the episodes of a scope, ordered by show, season and number
func (c *StrategyController) Select(scope SelectionScope) ([]*models.Episode, error) {
	var (
		episodes []*models.Episode
		err      error
	)

	switch scope {
	case ScopeDue:
		episodes, err = c.db.GetDueEpisodes(c.now())
	case ScopeToWatch:
		episodes, err = c.db.GetToWatchEpisodes()
	default:
		return nil, fmt.Errorf("unknown selection scope %q", scope)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select %s episodes: %w", scope, err)
	}

	c.logger.WithFields(logrus.Fields{
		"scope": scope,
		"count": len(episodes),
	}).Debug("Selected episodes")

	return episodes, nil
}
