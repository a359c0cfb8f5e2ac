package cmd

import (
	"os"

	"github.com/shandysiswandi/mlsgate/internal/app"
	"github.com/shandysiswandi/mlsgate/internal/console"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive menu: create accounts, log in and work with files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(func(a *app.App) error {
			c := console.New(os.Stdin, cmd.OutOrStdout(), console.TerminalSecret(os.Stdin, cmd.OutOrStdout()),
				a.Identity(), a.Filestore())
			return c.Run(cmd.Context())
		})
	},
}
