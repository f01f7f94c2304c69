package handlers

import (
	"net/http"
	"strings"

	"github.com/amaumene/tvshowfetcher/internal/browser"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// BrowseHandler exposes the cloud browser
type BrowseHandler struct {
	browser *browser.Browser
	logger  *logrus.Logger
}

// NewBrowseHandler creates a new browse handler
func NewBrowseHandler(b *browser.Browser, logger *logrus.Logger) *BrowseHandler {
	return &BrowseHandler{browser: b, logger: logger}
}

// Routes mounts the browse endpoints on r
func (h *BrowseHandler) Routes(r chi.Router) {
	r.Get("/list", h.List)
	r.Get("/list/*", h.List)
	r.Post("/shorten", h.Shorten)
	r.Post("/delete/{keyword}", h.Delete)
	r.Post("/refresh/*", h.Refresh)
}

type shortenRequest struct {
	Path    string `json:"path"`
	Keyword string `json:"keyword"`
}

// List renders one directory
func (h *BrowseHandler) List(w http.ResponseWriter, r *http.Request) {
	listing, err := h.browser.List(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list directory")
		RespondError(w, http.StatusBadGateway, "Failed to list directory")
		return
	}
	RespondJSON(w, http.StatusOK, listing)
}

// Shorten creates a short URL for a path
func (h *BrowseHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Path) == "" {
		RespondError(w, http.StatusBadRequest, "path is required")
		return
	}

	result, err := h.browser.Shorten(r.Context(), req.Path, req.Keyword)
	if err != nil {
		h.logger.WithError(err).WithField("path", req.Path).Error("Failed to shorten")
		RespondError(w, http.StatusBadGateway, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Delete removes a short URL. ?path= names the listing to invalidate.
func (h *BrowseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	keyword := chi.URLParam(r, "keyword")
	if err := h.browser.Delete(r.Context(), keyword, r.URL.Query().Get("path")); err != nil {
		h.logger.WithError(err).WithField("keyword", keyword).Error("Failed to delete short URL")
		RespondError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh drops the cached listing of a path
func (h *BrowseHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.browser.Refresh(chi.URLParam(r, "*"))
	w.WriteHeader(http.StatusNoContent)
}
