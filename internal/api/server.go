package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/api/handlers"
	"github.com/amaumene/tvshowfetcher/internal/api/middleware"
	"github.com/amaumene/tvshowfetcher/internal/browser"
	"github.com/amaumene/tvshowfetcher/internal/controllers"
	"github.com/amaumene/tvshowfetcher/internal/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Dependencies are the components served over HTTP. Browser may be nil.
type Dependencies struct {
	DB           *models.Database
	SyncCtrl     *controllers.SyncController
	StrategyCtrl *controllers.StrategyController
	DownloadCtrl *controllers.DownloadController
	Browser      *browser.Browser
	Gatherer     prometheus.Gatherer
	Actor        string
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(port string, deps *Dependencies, logger *logrus.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           NewRouter(deps, logger),
			ReadHeaderTimeout: 15 * time.Second,
			ReadTimeout:       15 * time.Second,
			// batch downloads wait between items
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter builds the routes of the operator API
func NewRouter(deps *Dependencies, logger *logrus.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging(logger))

	r.Get("/health", handlers.NewHealthHandler().ServeHTTP)
	r.Get("/status", handlers.NewStatusHandler(deps.DB, logger).ServeHTTP)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/shows", handlers.NewShowsHandler(deps.DB, deps.SyncCtrl, deps.Actor, logger).Routes)
		r.Route("/episodes", handlers.NewEpisodesHandler(deps.DB, deps.StrategyCtrl, deps.DownloadCtrl, logger).Routes)
		r.Post("/downloads/urls", handlers.NewDownloadsHandler(deps.DownloadCtrl, logger).URLs)
	})

	if deps.Browser != nil {
		r.Route("/browse", handlers.NewBrowseHandler(deps.Browser, logger).Routes)
	}

	return r
}

// Start starts the HTTP server and blocks until ctx is done
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("addr", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
