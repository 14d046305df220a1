package handlers

import (
	"fmt"

	"conference-webapp/errors"
	"conference-webapp/model"
	"conference-webapp/query"

	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) CreateConference(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return h.fail(c, err)
	}
	form := new(model.ConferenceForm)
	if jsonErr := c.BodyParser(form); jsonErr != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable conference parameters: %v", jsonErr))
	}
	conf, err := h.Conferences.Create(c.UserContext(), who, *form)
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, conf)
}

func (h *Handlers) UpdateConference(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return h.fail(c, err)
	}
	form := new(model.ConferenceForm)
	if jsonErr := c.BodyParser(form); jsonErr != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable conference parameters: %v", jsonErr))
	}
	conf, err := h.Conferences.Update(c.UserContext(), who, c.Params("key"), *form)
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, conf)
}

func (h *Handlers) GetConference(c *fiber.Ctx) error {
	conf, err := h.Conferences.Get(c.UserContext(), c.Params("key"))
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, conf)
}

func (h *Handlers) GetConferencesCreated(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return h.fail(c, err)
	}
	confs, err := h.Conferences.Created(c.UserContext(), who)
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, confs)
}

func (h *Handlers) QueryConferences(c *fiber.Ctx) error {
	var req struct {
		Filters []query.FilterSpec `json:"filters"`
	}
	if len(c.Body()) > 0 {
		if jsonErr := c.BodyParser(&req); jsonErr != nil {
			return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable filters: %v", jsonErr))
		}
	}
	confs, err := h.Conferences.Query(c.UserContext(), req.Filters)
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, confs)
}

func (h *Handlers) GetConferencesByTopic(c *fiber.Ctx) error {
	confs, err := h.Conferences.ByTopic(c.UserContext(), c.Params("topic"))
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, confs)
}

func (h *Handlers) GetConferencesToAttend(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return h.fail(c, err)
	}
	confs, err := h.Conferences.Attending(c.UserContext(), who)
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, confs)
}

func (h *Handlers) GetAnnouncement(c *fiber.Ctx) error {
	return sendData(c, h.Cache.Announcement())
}
