package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chancat/channel-catalog-go/internal/config"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool
	cfg     *config.Config
	log     *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Channel catalog operator CLI",
	Long: `catalogctl runs catalog jobs by hand and moderates channels from a shell.

It reads the same config.yaml and CATALOG_* environment as the server and
the worker.

Example usage:
  catalogctl cycle                 # Collect every approved channel now
  catalogctl cycle --enqueue       # Hand a cycle to the worker instead
  catalogctl digest --print        # Render the digest without sending it
  catalogctl channels list --status pending
  catalogctl channels approve 42
  catalogctl telegram login --phone +15550100`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig loads the configuration unless one is already set and builds
// the logger.
func initConfig() error {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	l, err := logger.New(level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log = l
	return nil
}
