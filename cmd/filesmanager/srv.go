package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"filesmanager/internal/server"
)

func newSrvCmd(state *cliState) *cobra.Command {
	var noWorker bool

	cmd := &cobra.Command{
		Use:   "srv",
		Short: "Run the API server with an embedded thumbnail worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := state.cfg
			logger := slog.Default()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			st, blobs, err := openBackends(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			q := newThumbnailQueue(st, cfg, logger)
			defer q.Close()

			srv, err := server.New(server.Config{
				Addr:           cfg.Addr(),
				Store:          st,
				Blobs:          blobs,
				Queue:          q,
				Logger:         logger,
				UploadMaxBytes: cfg.UploadMaxBytes,
			})
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Serve(gctx) })
			if !noWorker {
				worker := newThumbnailWorker(st, blobs, q, cfg, logger)
				g.Go(func() error { return worker.Run(gctx) })
			}
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&noWorker, "no-worker", false, "do not run the embedded thumbnail worker")
	return cmd
}
