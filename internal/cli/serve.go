package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgraph/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noStore bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagram HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), noStore)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable snapshot persistence")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, noStore bool) error {
	logger := loggerFrom(ctx)
	st, err := c.openStore(ctx, noStore)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := server.New(server.Options{
		Store:          st,
		Keyer:          c.keyer(),
		Logger:         logger,
		GraphOptions:   c.cfg.DiagramOptions(),
		SnapshotTTL:    c.cfg.Store.TTL,
		RequestTimeout: c.cfg.Server.RequestTimeout,
		MaxBodyBytes:   c.cfg.Server.MaxBodyBytes,
	})
	defer srv.Close()

	logger.Info("starting server", "store", c.cfg.Store.Backend, "layout", c.cfg.Layout.Engine)
	return srv.ListenAndServe(ctx, c.cfg.Server.Addr)
}
