package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the server's stores are alive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := state.client().Status(cmd.Context())
			if err != nil {
				return err
			}
			return state.write(status, func(w io.Writer) error {
				return writeLines(w,
					fmt.Sprintf("db: %t", status.DB),
					fmt.Sprintf("sessions: %t", status.Sessions),
					fmt.Sprintf("blobs: %t", status.Blobs),
				)
			})
		},
	}
}

func newStatsCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show user, file and job counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := state.client().Stats(cmd.Context())
			if err != nil {
				return err
			}
			return state.write(stats, func(w io.Writer) error {
				lines := []string{
					fmt.Sprintf("users: %d", stats.Users),
					fmt.Sprintf("files: %d", stats.Files),
				}
				statuses := make([]string, 0, len(stats.Jobs))
				for status := range stats.Jobs {
					statuses = append(statuses, status)
				}
				sort.Strings(statuses)
				for _, status := range statuses {
					lines = append(lines, fmt.Sprintf("jobs.%s: %d", status, stats.Jobs[status]))
				}
				return writeLines(w, lines...)
			})
		},
	}
}
