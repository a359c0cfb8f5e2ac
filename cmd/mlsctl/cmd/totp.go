package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shandysiswandi/mlsgate/internal/app"
	"github.com/shandysiswandi/mlsgate/internal/console"
	"github.com/spf13/cobra"
)

var totpCmd = &cobra.Command{
	Use:   "totp <username>",
	Short: "Show a user's current second-factor code, refreshed every second",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(func(a *app.App) error {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()

			c := console.New(os.Stdin, cmd.OutOrStdout(), nil, a.Identity(), a.Filestore())
			return c.WatchCode(ctx, args[0], ticker.C)
		})
	},
}
