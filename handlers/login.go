package handlers

import (
	stderrors "errors"
	"fmt"
	"time"

	"conference-webapp/database"
	"conference-webapp/errors"
	"conference-webapp/model"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

func isPasswordHashCorrect(dbHash, pass string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(dbHash), []byte(pass))
	return err == nil
}

func (h *Handlers) Login(c *fiber.Ctx) error {
	type Credentials struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}

	var creds = new(Credentials)

	if err := c.BodyParser(creds); err != nil {
		return errors.RaiseError(c, fiber.StatusBadRequest, "Error on login request when parse credentials", fmt.Sprintf("%v", err))
	}
	if creds.Login == "" {
		return errors.RaiseError(c, fiber.StatusBadRequest, "Error on login request when parse credentials", "login is required")
	}

	var user model.UserData
	geterr := h.Store.Get(c.UserContext(), model.UserKey(creds.Login), &user)
	if stderrors.Is(geterr, database.ErrNoSuchEntity) {
		return errors.RaiseError(c, fiber.StatusUnauthorized, "Invalid login or password", "")
	}
	if geterr != nil {
		h.logger().Error("login lookup failed", "login", creds.Login, "err", geterr)
		return errors.RaiseError(c, fiber.StatusInternalServerError, "Error on login request when comparing user data", fmt.Sprintf("%v", geterr))
	}

	if !isPasswordHashCorrect(user.HashedPassword, creds.Password) {
		return errors.RaiseError(c, fiber.StatusUnauthorized, "Invalid login or password", "")
	}

	t, err := IssueToken(user, h.SigningKey, h.TokenTTL, time.Now())
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"status": "success", "message": "Success login", "data": t})
}

// IssueToken signs an HS256 token carrying the user's identity claims.
func IssueToken(user model.UserData, signingKey string, ttl time.Duration, now time.Time) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["sub"] = user.UserID
	claims["email"] = user.Email
	claims["nickname"] = user.Nickname
	claims["exp"] = now.Add(ttl).Unix()

	return token.SignedString([]byte(signingKey))
}
