package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Teyk0o/wwsnb/internal/relay"
	"github.com/Teyk0o/wwsnb/pkg/config"
	"github.com/Teyk0o/wwsnb/pkg/logging"
)

func main() {
	var configName string

	root := &cobra.Command{
		Use:   "wwsnbd",
		Short: "Reaction relay for WWSNB sessions",
		Long: "wwsnbd relays emoji reactions between the members of a chat session " +
			"and keeps the authoritative per-session reaction state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Optional; environment overrides still apply without one.
			_ = godotenv.Load()

			logger := logging.New(logging.LevelDebug)
			cfg, err := config.Load(logger, configName)
			if err != nil {
				return err
			}

			logger = logging.New(logging.ParseLevel(cfg.LogLevel))
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			app, err := relay.NewApp(logger, ctx, cfg)
			if err != nil {
				logger.Error("Failed to initialize relay", slog.Any("error", err))
				return err
			}
			if err := app.Run(); err != nil {
				logger.Error("Relay run failed", slog.Any("error", err))
				return err
			}
			logger.Info("Relay shut down successfully.")
			return nil
		},
	}
	root.Flags().StringVar(&configName, "config", "config", "config file name (without extension)")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
