package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chargemap/backend/libs/logging"
	"chargemap/backend/services/stations-service/internal/app"
	"chargemap/backend/services/stations-service/internal/config"
	"chargemap/backend/services/stations-service/internal/seed"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stations-service",
		Short:         "Charging station search, sessions, reviews and favorites",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSeedCommand())
	return cmd
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewLogger("stations-service")
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newServeCommand() *cobra.Command {
	var (
		migrate  bool
		withSeed bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if migrate && cfg.Storage.Driver == config.StoragePostgres {
				if err := app.Migrate(ctx, cfg); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				logger.Error("failed to init stations service", zap.Error(err))
				return err
			}
			defer application.Close()

			if withSeed {
				res, err := application.Seed(ctx)
				if err != nil {
					return err
				}
				logSeed(logger, res)
			}

			if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("stations service stopped with error", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply database migrations before serving")
	cmd.Flags().BoolVar(&withSeed, "seed", false, "Load sample users, stations and reviews before serving")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := app.Migrate(cmd.Context(), cfg); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample users, stations and reviews (skips what already exists)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			res, err := app.Seed(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			logSeed(logger, res)
			return nil
		},
	}
}

func logSeed(logger *zap.Logger, res seed.Result) {
	logger.Info("sample data loaded",
		zap.Int("users", res.Users),
		zap.Int("stations", res.Stations),
		zap.Int("reviews", res.Reviews),
	)
}
