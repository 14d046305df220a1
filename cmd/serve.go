package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"conference-webapp/config"
	"conference-webapp/database"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	app := NewApp(cfg, store, logger, false)

	seeded, err := app.Users.Seed(ctx, cfg.SeedUsers)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	if seeded > 0 {
		logger.Info("seeded users", "count", seeded)
	}

	app.Dispatcher.Start(ctx, cfg.Announcements.RefreshInterval)
	app.Dispatcher.RefreshAnnouncement()
	defer app.Dispatcher.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		return app.Fiber.Listen(cfg.HTTP.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.Fiber.Shutdown()
	})
	return g.Wait()
}
