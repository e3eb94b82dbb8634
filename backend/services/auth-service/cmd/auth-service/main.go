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
	app "chargemap/backend/services/auth-service/internal/app"
	"chargemap/backend/services/auth-service/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "auth-service: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand serves the auth API when run without a subcommand.
func newRootCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:           "auth-service",
		Short:         "Registration, login and JWT issuance for ChargeMap users",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if migrate {
				cfg.Database.Migrate = true
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply the users schema before accepting logins")

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the users schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return app.Migrate(cmd.Context(), cfg)
		},
	})
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.NewLogger("auth-service")
	if err != nil {
		return err
	}
	defer logger.Sync()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("auth service failed to start", zap.Error(err))
		return err
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("auth service stopped with error", zap.Error(err))
		return err
	}
	return nil
}
