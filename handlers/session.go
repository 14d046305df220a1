package handlers

import (
	"fmt"

	"conference-webapp/errors"
	"conference-webapp/model"

	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) CreateSession(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return h.fail(c, err)
	}
	form := new(model.SessionForm)
	if jsonErr := c.BodyParser(form); jsonErr != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable session parameters: %v", jsonErr))
	}
	sesh, err := h.Sessions.Create(c.UserContext(), who, c.Params("key"), *form)
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, sesh)
}

// GetConferenceSessions serves every session of a conference, or only those
// of the type given in ?type=.
func (h *Handlers) GetConferenceSessions(c *fiber.Ctx) error {
	sessions, err := h.Sessions.ForConference(c.UserContext(), c.Params("key"), c.Query("type"))
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, sessions)
}

func (h *Handlers) GetConferenceSessionsByType(c *fiber.Ctx) error {
	if c.Params("type") == "" {
		return errors.RaiseBadRequestError(c, "you must supply a session type")
	}
	sessions, err := h.Sessions.ForConference(c.UserContext(), c.Params("key"), c.Params("type"))
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, sessions)
}

func (h *Handlers) GetSessionsByType(c *fiber.Ctx) error {
	sessions, err := h.Sessions.ByType(c.UserContext(), c.Params("type"))
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, sessions)
}

func (h *Handlers) GetSessionsBySpeaker(c *fiber.Ctx) error {
	sessions, err := h.Sessions.BySpeaker(c.UserContext(), c.Params("speaker"))
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, sessions)
}

func (h *Handlers) GetEarlyNonWorkshopSessions(c *fiber.Ctx) error {
	sessions, err := h.Sessions.EarlyNonWorkshop(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, sessions)
}

func (h *Handlers) GetFeaturedSpeaker(c *fiber.Ctx) error {
	return sendData(c, h.Cache.FeaturedSpeaker())
}
