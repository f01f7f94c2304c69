package main

import (
	"fmt"
	"io"

	"github.com/amaumene/tvshowfetcher/internal/controllers"
	"github.com/amaumene/tvshowfetcher/internal/models"
	"github.com/spf13/cobra"
)

func newDownloadCommand() *cobra.Command {
	var toWatch bool

	cmd := &cobra.Command{
		Use:   "download [id...]",
		Short: "Acquire episodes, the due ones when no id is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			return withApp(func(a *app) error {
				var episodes []*models.Episode
				switch {
				case len(ids) > 0:
					episodes, err = a.db.GetEpisodes(ids)
				case toWatch:
					episodes, err = a.strategyCtrl.Select(controllers.ScopeToWatch)
				default:
					episodes, err = a.strategyCtrl.Select(controllers.ScopeDue)
				}
				if err != nil {
					return err
				}
				if len(episodes) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to download")
					return nil
				}

				report, err := a.downloadCtrl.DownloadEpisodes(cmd.Context(), episodes)
				for _, res := range report.Results {
					printOutcome(cmd.OutOrStdout(), res.Episode.String(), res.Outcome)
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&toWatch, "to-watch", false, "Include aired episodes dated in the future")
	return cmd
}

func newDownloadURLsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "download-urls url...",
		Short: "Acquire torrents from indexer URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				results, err := a.downloadCtrl.DownloadByURLs(cmd.Context(), args)
				if len(results) == 0 && err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No torrent id found in the given URLs")
				}
				for _, res := range results {
					printOutcome(cmd.OutOrStdout(), res.URL, res.Outcome)
				}
				return err
			})
		},
	}
}

func newRefreshCacheCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-cache",
		Short: "Walk the cloud storage and fill the browser caches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if a.browser == nil {
					return fmt.Errorf("cloud browser is not configured")
				}
				n, err := a.browser.Prewarm(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d directories cached\n", n)
				return nil
			})
		},
	}
}

func printOutcome(w io.Writer, label string, outcome controllers.Outcome) {
	switch outcome.Status {
	case controllers.OutcomeSuccess:
		fmt.Fprintf(w, "%s: %s\n", label, outcome.Title)
	case controllers.OutcomeNoCandidate:
		fmt.Fprintf(w, "%s: no candidate found\n", label)
	default:
		fmt.Fprintf(w, "%s: %v\n", label, outcome.Err)
	}
}
