package cmd

import (
	"log/slog"

	"conference-webapp/cache"
	"conference-webapp/catalog"
	"conference-webapp/config"
	"conference-webapp/database"
	"conference-webapp/handlers"
	"conference-webapp/metrics"
	"conference-webapp/middleware"
	"conference-webapp/registration"
	"conference-webapp/router"
	"conference-webapp/tasks"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the assembled service over one store.
type App struct {
	Fiber      *fiber.App
	Store      database.Store
	Users      *catalog.Users
	Cache      *cache.Cache
	Dispatcher *tasks.Dispatcher
	Registry   *prometheus.Registry
}

// NewApp wires services, background tasks and routes. The dispatcher is not
// started.
func NewApp(cfg config.Config, store database.Store, logger *slog.Logger, quiet bool) *App {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	announcements := cache.New(store, logger)
	dispatcher := tasks.NewDispatcher(announcements, tasks.LogMailer{Logger: logger}, logger, m)

	coordinator := registration.NewCoordinator(store, logger, m)
	coordinator.SeatsChanged = dispatcher.SeatsChanged

	h := &handlers.Handlers{
		Store:        store,
		Profiles:     catalog.NewProfiles(store, logger),
		Conferences:  catalog.NewConferences(store, dispatcher, logger),
		Sessions:     catalog.NewSessions(store, dispatcher, logger),
		Registration: coordinator,
		Cache:        announcements,
		SigningKey:   cfg.Auth.SigningKey,
		TokenTTL:     cfg.Auth.TokenTTL,
		Logger:       logger,
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: quiet})
	router.SetupRoutes(app, h, router.Options{
		Limiter:  middleware.NewUserLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 0),
		Gatherer: reg,
		Quiet:    quiet,
	})

	return &App{
		Fiber:      app,
		Store:      store,
		Users:      catalog.NewUsers(store, logger),
		Cache:      announcements,
		Dispatcher: dispatcher,
		Registry:   reg,
	}
}
