package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/amaumene/tvshowfetcher/internal/api"
	"github.com/amaumene/tvshowfetcher/internal/scheduler"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the operator API and the scheduled jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return serve(ctx, a)
			})
		},
	}
}

func serve(ctx context.Context, a *app) error {
	var prewarmer scheduler.Prewarmer
	if a.browser != nil {
		prewarmer = a.browser
	}

	sched := scheduler.NewScheduler(scheduler.Schedules{
		Sync:     a.cfg.ScheduleSync,
		Download: a.cfg.ScheduleDownload,
		Prewarm:  a.cfg.SchedulePrewarm,
		Purge:    a.cfg.SchedulePurge,
	}, a.syncCtrl, a.strategyCtrl, a.downloadCtrl, a.cleanupCtrl, prewarmer, a.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	server := api.NewServer(a.cfg.ServerPort, &api.Dependencies{
		DB:           a.db,
		SyncCtrl:     a.syncCtrl,
		StrategyCtrl: a.strategyCtrl,
		DownloadCtrl: a.downloadCtrl,
		Browser:      a.browser,
		Gatherer:     a.registry,
		Actor:        a.cfg.AuditActor,
	}, a.logger)

	a.logger.Info("tvshowfetcher is running")
	if err := server.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("tvshowfetcher stopped")
	return nil
}
