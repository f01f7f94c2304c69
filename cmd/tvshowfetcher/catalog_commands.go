package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGetShowsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get-shows",
		Short: "Refresh the followed shows from the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				n, err := a.syncCtrl.SyncShows(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d shows synced\n", n)
				return nil
			})
		},
	}
}

func newFetchShowCommand() *cobra.Command {
	var (
		all     bool
		enabled bool
		name    string
	)

	cmd := &cobra.Command{
		Use:   "fetch-show [id...]",
		Short: "Refresh the episodes of shows",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if !all && !enabled && name == "" && len(ids) == 0 {
				return fmt.Errorf("give show ids, --name, --enabled or --all")
			}

			return withApp(func(a *app) error {
				ctx := cmd.Context()
				var n int
				switch {
				case all:
					n, err = a.syncCtrl.SyncAll(ctx)
				case enabled:
					n, err = a.syncCtrl.SyncEnabled(ctx)
				default:
					if name != "" {
						show, err := a.db.FindShowByName(name)
						if err != nil {
							return fmt.Errorf("no show matches %q: %w", name, err)
						}
						fmt.Fprintf(cmd.OutOrStdout(), "Matched %s (%d)\n", show.Name, show.ID)
						ids = append(ids, show.ID)
					}
					n, err = a.syncCtrl.SyncShowsByID(ctx, ids)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d episodes synced\n", n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Fetch every known show")
	cmd.Flags().BoolVar(&enabled, "enabled", false, "Fetch the enabled shows")
	cmd.Flags().StringVar(&name, "name", "", "Fetch the show closest to this name")
	return cmd
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
