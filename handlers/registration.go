package handlers

import (
	"fmt"

	"conference-webapp/errors"

	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) RegisterForConference(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return h.fail(c, err)
	}
	ok, err := h.Registration.Register(c.UserContext(), who, c.Params("key"))
	if err != nil {
		return h.fail(c, err)
	}
	return sendData(c, ok)
}

func (h *Handlers) UnregisterFromConference(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return h.fail(c, err)
	}
	ok, err := h.Registration.Unregister(c.UserContext(), who, c.Params("key"))
	if err != nil {
		return h.fail(c, err)
	}
	return sendData(c, ok)
}

func (h *Handlers) AddSessionToWishlist(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req struct {
		WebsafeSessionKey string `json:"websafeSessionKey"`
	}
	if jsonErr := c.BodyParser(&req); jsonErr != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable wishlist parameters: %v", jsonErr))
	}
	sesh, err := h.Registration.AddToWishlist(c.UserContext(), who, req.WebsafeSessionKey)
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, sesh)
}

func (h *Handlers) GetSessionsFromWishlist(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return h.fail(c, err)
	}
	sessions, err := h.Registration.ListWishlist(c.UserContext(), who)
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, sessions)
}
