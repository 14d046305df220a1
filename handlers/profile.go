package handlers

import (
	"fmt"

	"conference-webapp/errors"
	"conference-webapp/model"

	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) GetProfile(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return h.fail(c, err)
	}
	prof, err := h.Profiles.Get(c.UserContext(), who)
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, prof)
}

func (h *Handlers) SaveProfile(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return h.fail(c, err)
	}
	form := new(model.ProfileForm)
	if jsonErr := c.BodyParser(form); jsonErr != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable profile parameters: %v", jsonErr))
	}
	prof, err := h.Profiles.Save(c.UserContext(), who, *form)
	if err != nil {
		return h.fail(c, err)
	}
	return sendJSON(c, prof)
}
