// File: cmd/serve.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/otto-cli/internal/desktop/robot"
	"github.com/xkilldash9x/otto-cli/internal/mcp"
	"github.com/xkilldash9x/otto-cli/internal/observability"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tool surface over HTTP and the chat endpoint over WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := observability.GetLogger()

			rt, err := newRuntime(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			conversations, err := rt.conversations(ctx)
			if err != nil {
				return err
			}

			scfg := cfg.Server()
			if addr != "" {
				scfg.Addr = addr
			}
			server := mcp.NewServer(scfg, rt.registry, rt.journal, conversations, logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.ListenAndServe(gctx)
			})
			if cfg.Desktop().FailSafe.Watch {
				g.Go(func() error {
					// A watcher that cannot start leaves the per-call check in place.
					if err := robot.WatchCorners(gctx, rt.lock, rt.screen, logger); err != nil {
						logger.Warn("Fail-safe corner watcher stopped", zap.Error(err))
					}
					return nil
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %d tools on http://%s\n", len(rt.registry.Tools()), scfg.Addr)
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
