package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/amaumene/tvshowfetcher/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Prewarmer fills the browser caches
type Prewarmer interface {
	Prewarm(ctx context.Context) (int, error)
}

// Schedules holds the cron expression of each job. An empty expression disables the job.
type Schedules struct {
	Sync     string
	Download string
	Prewarm  string
	Purge    string
}

type job struct {
	name string
	spec string
	run  func()
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron         *cron.Cron
	schedules    Schedules
	syncCtrl     *controllers.SyncController
	strategyCtrl *controllers.StrategyController
	downloadCtrl *controllers.DownloadController
	cleanupCtrl  *controllers.CleanupController
	prewarmer    Prewarmer
	logger       *logrus.Logger

	// serializes sync and download so a batch never reads a half synced mirror
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler. prewarmer may be nil when the browser is disabled.
func NewScheduler(
	schedules Schedules,
	syncCtrl *controllers.SyncController,
	strategyCtrl *controllers.StrategyController,
	downloadCtrl *controllers.DownloadController,
	cleanupCtrl *controllers.CleanupController,
	prewarmer Prewarmer,
	logger *logrus.Logger,
) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:         cron.New(),
		schedules:    schedules,
		syncCtrl:     syncCtrl,
		strategyCtrl: strategyCtrl,
		downloadCtrl: downloadCtrl,
		cleanupCtrl:  cleanupCtrl,
		prewarmer:    prewarmer,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start registers the enabled jobs and starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	jobs := []job{
		{"sync", s.schedules.Sync, s.runSync},
		{"download", s.schedules.Download, s.runDownload},
		{"purge", s.schedules.Purge, s.runPurge},
	}
	if s.prewarmer != nil {
		jobs = append(jobs, job{"prewarm", s.schedules.Prewarm, s.runPrewarm})
	}

	for _, j := range jobs {
		if j.spec == "" {
			s.logger.WithField("job", j.name).Info("Job disabled")
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, j.run); err != nil {
			return fmt.Errorf("failed to add %s job: %w", j.name, err)
		}
		s.logger.WithFields(logrus.Fields{
			"job":      j.name,
			"schedule": j.spec,
		}).Info("Job scheduled")
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// runSync refreshes the catalog mirror
func (s *Scheduler) runSync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Running scheduled sync")
	if err := s.syncCtrl.SyncCatalog(s.ctx); err != nil {
		s.logger.WithError(err).Error("Sync job failed")
		return
	}
	s.logger.Info("Sync job completed successfully")
}

// runDownload acquires the due episodes
func (s *Scheduler) runDownload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Running scheduled download")
	episodes, err := s.strategyCtrl.Select(controllers.ScopeDue)
	if err != nil {
		s.logger.WithError(err).Error("Failed to select due episodes")
		return
	}
	if len(episodes) == 0 {
		s.logger.Debug("No due episodes to process")
		return
	}

	report, err := s.downloadCtrl.DownloadEpisodes(s.ctx, episodes)
	if err != nil {
		s.logger.WithError(err).Error("Download job failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"processed": len(report.Results),
		"succeeded": report.Succeeded(),
	}).Info("Download job completed successfully")
}

// runPrewarm walks the cloud storage to fill the browser caches
func (s *Scheduler) runPrewarm() {
	s.logger.Info("Running scheduled cache prewarm")
	if _, err := s.prewarmer.Prewarm(s.ctx); err != nil {
		s.logger.WithError(err).Error("Prewarm job failed")
	}
}

// runPurge removes stale temporary descriptors
func (s *Scheduler) runPurge() {
	if _, err := s.cleanupCtrl.PurgeTempDescriptors(s.ctx); err != nil {
		s.logger.WithError(err).Error("Purge job failed")
	}
}
