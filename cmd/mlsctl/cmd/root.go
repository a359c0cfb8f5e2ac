// Package cmd implements the mlsctl operator console.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shandysiswandi/mlsgate/internal/app"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mlsctl",
	Short: "Local operator console for mlsgate",
	Long: `mlsctl opens the configured credential store, file catalog and object
storage directly, without going through the HTTP server. It shares the
server's configuration file so both see the same accounts and files.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if configPath != "" {
			//nolint:errcheck,gosec // ignore error
			os.Setenv("CONFIG_PATH", configPath)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default $CONFIG_PATH or ./config/config.yaml)")
	rootCmd.AddCommand(shellCmd, provisionCmd, totpCmd)
}

// withApp wires the application, runs fn and shuts it down again so pending
// audit events are flushed.
func withApp(fn func(a *app.App) error) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a, err := app.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Stop(ctx)
	}()

	return fn(a)
}
