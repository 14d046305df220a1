package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"conference-webapp/cache"
	"conference-webapp/catalog"
	"conference-webapp/config"
	"conference-webapp/database"
	"conference-webapp/errors"
	"conference-webapp/middleware"
	"conference-webapp/model"
	"conference-webapp/registration"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Store        database.Store
	Profiles     *catalog.Profiles
	Conferences  *catalog.Conferences
	Sessions     *catalog.Sessions
	Registration *registration.Coordinator
	Cache        *cache.Cache
	SigningKey   string
	TokenTTL     time.Duration
	Logger       *slog.Logger
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger == nil {
		return config.DiscardLogger()
	}
	return h.Logger
}

// fail logs internal errors and writes err with the status of its kind.
func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	if errors.KindOf(err) == errors.KindInternal {
		h.logger().Error("request failed", "path", c.Path(), "err", err)
	}
	return errors.Raise(c, err)
}

func identity(c *fiber.Ctx) (model.Identity, error) {
	return middleware.Identity(c)
}

func sendJSON(c *fiber.Ctx, v any) error {
	body, err := json.MarshalIndent(v, "", "	")
	if err != nil {
		return errors.RaiseInternalServerError(c, fmt.Sprintf("json serialization error: %v", err))
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(body)
}

func sendData(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}
