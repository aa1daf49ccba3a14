package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newWorkerCmd(state *cliState) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a standalone thumbnail worker against the configured stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *state.cfg
			if concurrency > 0 {
				cfg.Worker.Concurrency = concurrency
			}
			logger := slog.Default()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			st, blobs, err := openBackends(ctx, &cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			q := newThumbnailQueue(st, &cfg, logger)
			defer q.Close()

			return newThumbnailWorker(st, blobs, q, &cfg, logger).Run(ctx)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel jobs (default from config)")
	return cmd
}
