package handlers

import (
	"net/http"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/models"
	"github.com/sirupsen/logrus"
)

const recentActivityLimit = 20

// StatusHandler handles status requests
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
	now    func() time.Time
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	Shows          int                  `json:"shows"`
	EnabledShows   int                  `json:"enabled_shows"`
	Episodes       int                  `json:"episodes"`
	Downloaded     int                  `json:"downloaded"`
	ToWatch        int                  `json:"to_watch"`
	Due            int                  `json:"due"`
	RecentActivity []*models.AuditEntry `json:"recent_activity"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response, err := h.collect()
	if err != nil {
		h.logger.WithError(err).Error("Failed to collect status")
		RespondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	RespondJSON(w, http.StatusOK, response)
}

func (h *StatusHandler) collect() (*StatusResponse, error) {
	shows, err := h.db.GetAllShows()
	if err != nil {
		return nil, err
	}
	episodes, err := h.db.GetAllEpisodes()
	if err != nil {
		return nil, err
	}
	toWatch, err := h.db.GetToWatchEpisodes()
	if err != nil {
		return nil, err
	}
	due, err := h.db.GetDueEpisodes(h.now())
	if err != nil {
		return nil, err
	}
	recent, err := h.db.GetRecentAuditEntries(recentActivityLimit)
	if err != nil {
		return nil, err
	}

	response := &StatusResponse{
		Shows:          len(shows),
		Episodes:       len(episodes),
		ToWatch:        len(toWatch),
		Due:            len(due),
		RecentActivity: recent,
	}
	for _, show := range shows {
		if show.Enabled {
			response.EnabledShows++
		}
	}
	for _, episode := range episodes {
		if episode.Downloaded {
			response.Downloaded++
		}
	}
	return response, nil
}
