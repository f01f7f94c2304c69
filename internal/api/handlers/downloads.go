package handlers

import (
	"net/http"

	"github.com/amaumene/tvshowfetcher/internal/controllers"
	"github.com/sirupsen/logrus"
)

// DownloadsHandler acquires torrents referenced by indexer URLs
type DownloadsHandler struct {
	downloadCtrl *controllers.DownloadController
	logger       *logrus.Logger
}

// NewDownloadsHandler creates a new downloads handler
func NewDownloadsHandler(downloadCtrl *controllers.DownloadController, logger *logrus.Logger) *DownloadsHandler {
	return &DownloadsHandler{downloadCtrl: downloadCtrl, logger: logger}
}

type urlsRequest struct {
	URLs []string `json:"urls"`
}

// URLs acquires every URL of the request
func (h *DownloadsHandler) URLs(w http.ResponseWriter, r *http.Request) {
	var req urlsRequest
	if err := decodeJSON(r, &req); err != nil || len(req.URLs) == 0 {
		RespondError(w, http.StatusBadRequest, "urls are required")
		return
	}

	results, err := h.downloadCtrl.DownloadByURLs(r.Context(), req.URLs)
	resp := BatchResponse{Messages: []Message{}}
	for _, res := range results {
		resp.add(res.Outcome.OK(), outcomeText(res.URL, res.Outcome))
	}
	if err != nil {
		h.logger.WithError(err).Error("URL download failed")
		resp.Error = err.Error()
	}
	RespondJSON(w, http.StatusOK, resp)
}
