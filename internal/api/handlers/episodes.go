package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/amaumene/tvshowfetcher/internal/controllers"
	"github.com/amaumene/tvshowfetcher/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// EpisodesHandler exposes episode selection and acquisition
type EpisodesHandler struct {
	db           *models.Database
	strategyCtrl *controllers.StrategyController
	downloadCtrl *controllers.DownloadController
	logger       *logrus.Logger
}

// NewEpisodesHandler creates a new episodes handler
func NewEpisodesHandler(db *models.Database, strategyCtrl *controllers.StrategyController, downloadCtrl *controllers.DownloadController, logger *logrus.Logger) *EpisodesHandler {
	return &EpisodesHandler{
		db:           db,
		strategyCtrl: strategyCtrl,
		downloadCtrl: downloadCtrl,
		logger:       logger,
	}
}

// Routes mounts the episode endpoints on r
func (h *EpisodesHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/download", h.Download)
	r.Post("/mark-downloaded", h.MarkDownloaded)
}

type downloadRequest struct {
	IDs []int64 `json:"ids"`
	Due bool    `json:"due"`
}

// List returns episodes. ?due=true and ?to_watch=true restrict to the
// acquisition scopes.
func (h *EpisodesHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		episodes []*models.Episode
		err      error
	)

	switch {
	case queryBool(r, "due"):
		episodes, err = h.strategyCtrl.Select(controllers.ScopeDue)
	case queryBool(r, "to_watch"):
		episodes, err = h.strategyCtrl.Select(controllers.ScopeToWatch)
	default:
		episodes, err = h.db.GetAllEpisodes()
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to list episodes")
		RespondError(w, http.StatusInternalServerError, "Failed to list episodes")
		return
	}
	RespondJSON(w, http.StatusOK, episodes)
}

// Download acquires the given episodes, or the due ones when due is set
func (h *EpisodesHandler) Download(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		episodes []*models.Episode
		err      error
	)
	if req.Due {
		episodes, err = h.strategyCtrl.Select(controllers.ScopeDue)
	} else {
		if len(req.IDs) == 0 {
			RespondError(w, http.StatusBadRequest, "ids or due are required")
			return
		}
		episodes, err = h.db.GetEpisodes(req.IDs)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load episodes")
		RespondError(w, http.StatusInternalServerError, "Failed to load episodes")
		return
	}

	report, err := h.downloadCtrl.DownloadEpisodes(r.Context(), episodes)
	resp := BatchResponse{Messages: []Message{}}
	for _, res := range report.Results {
		resp.add(res.Outcome.OK(), outcomeText(res.Episode.String(), res.Outcome))
	}
	if err != nil {
		resp.Error = err.Error()
	}
	RespondJSON(w, http.StatusOK, resp)
}

// MarkDownloaded flags episodes as downloaded without acquiring them
func (h *EpisodesHandler) MarkDownloaded(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeJSON(r, &req); err != nil || len(req.IDs) == 0 {
		RespondError(w, http.StatusBadRequest, "ids are required")
		return
	}

	n, err := h.downloadCtrl.MarkDownloaded(req.IDs)
	if err != nil {
		h.logger.WithError(err).Error("Failed to mark episodes downloaded")
		RespondError(w, http.StatusInternalServerError, "Failed to mark episodes downloaded")
		return
	}

	var resp BatchResponse
	resp.add(true, fmt.Sprintf("%d episodes marked as downloaded", n))
	RespondJSON(w, http.StatusOK, resp)
}

func outcomeText(label string, outcome controllers.Outcome) string {
	switch outcome.Status {
	case controllers.OutcomeSuccess:
		return fmt.Sprintf("%s: %s", label, outcome.Title)
	case controllers.OutcomeNoCandidate:
		return fmt.Sprintf("%s: no candidate found", label)
	default:
		return fmt.Sprintf("%s: %v", label, outcome.Err)
	}
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
