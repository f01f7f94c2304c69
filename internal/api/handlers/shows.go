package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/amaumene/tvshowfetcher/internal/controllers"
	"github.com/amaumene/tvshowfetcher/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// ShowsHandler exposes the show mirror and its sync actions
type ShowsHandler struct {
	db       *models.Database
	syncCtrl *controllers.SyncController
	actor    string
	logger   *logrus.Logger
}

// NewShowsHandler creates a new shows handler
func NewShowsHandler(db *models.Database, syncCtrl *controllers.SyncController, actor string, logger *logrus.Logger) *ShowsHandler {
	return &ShowsHandler{
		db:       db,
		syncCtrl: syncCtrl,
		actor:    actor,
		logger:   logger,
	}
}

// Routes mounts the show endpoints on r
func (h *ShowsHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/sync", h.Sync)
	r.Post("/fetch-enabled", h.FetchEnabled)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/episodes", h.Episodes)
		r.Get("/history", h.History)
		r.Post("/enable", h.Enable)
		r.Post("/disable", h.Disable)
		r.Post("/fetch", h.Fetch)
	})
}

// List returns every show ordered by name
func (h *ShowsHandler) List(w http.ResponseWriter, r *http.Request) {
	shows, err := h.db.GetAllShows()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list shows")
		RespondError(w, http.StatusInternalServerError, "Failed to list shows")
		return
	}
	RespondJSON(w, http.StatusOK, shows)
}

// Sync refreshes the followed shows from the catalog
func (h *ShowsHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var resp BatchResponse
	n, err := h.syncCtrl.SyncShows(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Show sync failed")
		resp.add(false, err.Error())
		RespondJSON(w, http.StatusBadGateway, resp)
		return
	}
	resp.add(true, fmt.Sprintf("%d shows synced", n))
	RespondJSON(w, http.StatusOK, resp)
}

// FetchEnabled refreshes the episodes of every enabled show
func (h *ShowsHandler) FetchEnabled(w http.ResponseWriter, r *http.Request) {
	var resp BatchResponse
	n, err := h.syncCtrl.SyncEnabled(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Episode sync failed")
		resp.add(false, err.Error())
		RespondJSON(w, http.StatusBadGateway, resp)
		return
	}
	resp.add(true, fmt.Sprintf("%d episodes synced", n))
	RespondJSON(w, http.StatusOK, resp)
}

// Episodes returns the mirrored episodes of one show
func (h *ShowsHandler) Episodes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		RespondError(w, http.StatusBadRequest, "Invalid show id")
		return
	}
	episodes, err := h.db.GetEpisodesByShow(id)
	if err != nil {
		h.logger.WithError(err).WithField("show_id", id).Error("Failed to list episodes")
		RespondError(w, http.StatusInternalServerError, "Failed to list episodes")
		return
	}
	RespondJSON(w, http.StatusOK, episodes)
}

// History returns the audit trail of one show
func (h *ShowsHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		RespondError(w, http.StatusBadRequest, "Invalid show id")
		return
	}
	entries, err := h.db.GetAuditEntries(models.KindShow, id)
	if err != nil {
		h.logger.WithError(err).WithField("show_id", id).Error("Failed to load history")
		RespondError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	RespondJSON(w, http.StatusOK, entries)
}

// Enable flags a show for automated sync and acquisition
func (h *ShowsHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

// Disable clears the enabled flag of a show
func (h *ShowsHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

func (h *ShowsHandler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		RespondError(w, http.StatusBadRequest, "Invalid show id")
		return
	}

	n, err := h.db.SetShowsEnabled([]int64{id}, enabled, h.actor)
	if err != nil {
		h.logger.WithError(err).WithField("show_id", id).Error("Failed to update show")
		RespondError(w, http.StatusInternalServerError, "Failed to update show")
		return
	}
	if n == 0 {
		RespondError(w, http.StatusNotFound, "Show not found")
		return
	}

	show, err := h.db.GetShow(id)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "Failed to load show")
		return
	}
	RespondJSON(w, http.StatusOK, show)
}

// Fetch refreshes the episodes of one show
func (h *ShowsHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		RespondError(w, http.StatusBadRequest, "Invalid show id")
		return
	}

	show, err := h.db.GetShow(id)
	if errors.Is(err, models.ErrNotFound) {
		RespondError(w, http.StatusNotFound, "Show not found")
		return
	}
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "Failed to load show")
		return
	}

	var resp BatchResponse
	n, err := h.syncCtrl.SyncEpisodes(r.Context(), show)
	if err != nil {
		resp.add(false, fmt.Sprintf("%s: %v", show.Name, err))
		RespondJSON(w, http.StatusBadGateway, resp)
		return
	}
	resp.add(true, fmt.Sprintf("%s: %d episodes synced", show.Name, n))
	RespondJSON(w, http.StatusOK, resp)
}
