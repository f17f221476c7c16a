package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/sandbox"
)

func (a *app) sandboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Local stand-in for the Realms admin API",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a seeded in-memory admin API until interrupted",
		Long: `Serve a seeded in-memory admin API until interrupted.

Point server.base_url at the printed address and use sandbox.user_id and
sandbox.session as the admin identity. State is reset on every start.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sb := a.cfg.Sandbox
			if v := stringFlag(cmd, "addr"); v != nil {
				sb.Addr = *v
			}
			if v := boolFlag(cmd, "metrics"); v != nil {
				sb.Metrics = *v
			}
			if !a.verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := sandbox.NewServer(sandbox.Options{
				UserID:  sb.UserID,
				Session: sb.Session,
				Metrics: sb.Metrics,
				Logger:  a.log,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Sandbox admin API on http://%s (user %d)\n", sb.Addr, sb.UserID)
			return srv.Run(ctx, sb.Addr)
		},
	}
	serveCmd.Flags().String("addr", "", "Listen address (default sandbox.addr)")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")

	cmd.AddCommand(serveCmd)
	return cmd
}
