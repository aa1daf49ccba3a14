package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"filesmanager/internal/store"
)

func newMigrateCmd(state *cliState) *cobra.Command {
	var inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := storeOptions(state.cfg)

			if !inspect {
				// Opening the store applies pending migrations, as on server start.
				st, err := store.OpenWith(cmd.Context(), opts)
				if err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				if err := st.Close(); err != nil {
					return err
				}
			}

			plan, err := store.InspectMigrations(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("inspect migrations: %w", err)
			}
			return state.write(plan, func(w io.Writer) error {
				if !inspect {
					fmt.Fprintln(w, "Migrations applied successfully.")
				}
				fmt.Fprintf(w, "Driver: %s\n", plan.Driver)
				fmt.Fprintf(w, "Current version: %d\n", plan.CurrentVersion)
				fmt.Fprintf(w, "Available version: %d\n", plan.AvailableVersion)
				if len(plan.Pending) == 0 {
					fmt.Fprintln(w, "No pending migrations.")
					return nil
				}
				fmt.Fprintf(w, "Pending migrations: %d\n", len(plan.Pending))
				for _, m := range plan.Pending {
					fmt.Fprintf(w, "  %d: %s\n", m.Version, m.Description)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&inspect, "inspect", false, "show migration status without applying")
	return cmd
}
