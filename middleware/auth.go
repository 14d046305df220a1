package middleware

import (
	"conference-webapp/errors"
	"conference-webapp/model"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
)

const identityKey = "identity"

// Authorize rejects requests without a valid bearer token signed with
// signingKey and leaves the parsed token for Identity.
func Authorize(signingKey string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(signingKey),
		ErrorHandler: jwtError,
		ContextKey:   identityKey,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return errors.RaiseError(c, fiber.StatusUnauthorized, "Missing or malformed JWT", "authorization required")
	}
	return errors.RaiseError(c, fiber.StatusUnauthorized, "Invalid or expired JWT", "")
}

// Identity resolves the caller of an authorized request.
func Identity(c *fiber.Ctx) (model.Identity, error) {
	token, ok := c.Locals(identityKey).(*jwt.Token)
	if !ok || token == nil {
		return model.Identity{}, errors.Unauthenticated("authorization required")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Identity{}, errors.Unauthenticated("authorization required")
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return model.Identity{}, errors.Unauthenticated("token carries no user id")
	}
	email, _ := claims["email"].(string)
	nickname, _ := claims["nickname"].(string)
	return model.Identity{UserID: userID, Email: email, Nickname: nickname}, nil
}
