package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tvshowfetcher",
		Short:         "Track TV show episodes and fetch the aired ones",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newGetShowsCommand())
	rootCmd.AddCommand(newFetchShowCommand())
	rootCmd.AddCommand(newDownloadCommand())
	rootCmd.AddCommand(newDownloadURLsCommand())
	rootCmd.AddCommand(newRefreshCacheCommand())

	return rootCmd
}

// withApp wires the application for the duration of fn
func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
