package router

import (
	"conference-webapp/handlers"
	"conference-webapp/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

type Options struct {
	// Limiter throttles registration and wishlist changes; nil disables it.
	Limiter  *middleware.UserLimiter
	Gatherer prometheus.Gatherer
	// Quiet drops the request logger.
	Quiet bool
}

func SetupRoutes(app *fiber.App, h *handlers.Handlers, opts Options) {
	var api fiber.Router = app
	if !opts.Quiet {
		api = app.Group("/", logger.New())
	}

	auth := middleware.Authorize(h.SigningKey)
	limit := middleware.RateLimit(opts.Limiter)

	//Metrics
	if opts.Gatherer != nil {
		metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
		api.Get("/metrics", func(c *fiber.Ctx) error {
			metrics(c.Context())
			return nil
		})
	}

	//Login
	api.Post("/login", h.Login)

	//Profile
	api.Get("/profile", auth, h.GetProfile)
	api.Post("/profile", auth, h.SaveProfile)

	//Conference
	api.Post("/conference", auth, h.CreateConference)
	api.Get("/conference/:key", auth, h.GetConference)
	api.Put("/conference/:key", auth, h.UpdateConference)

	//Registration
	api.Post("/conference/:key/registration", auth, limit, h.RegisterForConference)
	api.Delete("/conference/:key/registration", auth, limit, h.UnregisterFromConference)

	//Sessions of a conference
	api.Get("/conference/:key/sessions", auth, h.GetConferenceSessions)
	api.Get("/conference/:key/sessions/type/:type", auth, h.GetConferenceSessionsByType)
	api.Post("/conference/:key/sessions", auth, h.CreateSession)

	//Conference listings
	api.Get("/conferences/announcement", h.GetAnnouncement)
	api.Post("/conferences/query", auth, h.QueryConferences)
	api.Get("/conferences/created", auth, h.GetConferencesCreated)
	api.Get("/conferences/attending", auth, h.GetConferencesToAttend)
	api.Get("/conferences/topic/:topic", auth, h.GetConferencesByTopic)

	//Session listings
	api.Get("/sessions/featured-speaker", h.GetFeaturedSpeaker)
	api.Get("/sessions/early-non-workshop", auth, h.GetEarlyNonWorkshopSessions)
	api.Get("/sessions/type/:type", auth, h.GetSessionsByType)
	api.Get("/sessions/speaker/:speaker", auth, h.GetSessionsBySpeaker)

	//Wishlist
	api.Post("/wishlist", auth, limit, h.AddSessionToWishlist)
	api.Get("/wishlist", auth, h.GetSessionsFromWishlist)
}
