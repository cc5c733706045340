package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/propscan/scheduler/app"
	"github.com/propscan/scheduler/config"
	"github.com/propscan/scheduler/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Inspection scheduling service",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Logging.Apply()

	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
