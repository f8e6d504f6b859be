package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"taskmate/internal/app"
)

func serveCmd() *cobra.Command {
	var (
		cfgPath string
		envFile string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadEnv(envFile); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfgPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "./config.yaml", "path to config (yaml or json)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config (missing file is ignored)")
	return cmd
}

// loadEnv loads path into the process env without overriding set variables.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func runServe(ctx context.Context, cfgPath string) error {
	a, err := app.NewApp(cfgPath)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		_ = a.Stop(context.Background(), app.StopFatalError)
		return fmt.Errorf("start: %w", err)
	}

	reason := app.StopSIGTERM
	select {
	case <-ctx.Done():
	case <-a.Done():
		reason = app.StopFatalError
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stopErr := a.Stop(stopCtx, reason)
	if reason == app.StopFatalError {
		if err := a.Err(); err != nil {
			return err
		}
	}
	return stopErr
}
