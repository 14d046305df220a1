package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	base := stderrors.New("disk on fire")
	wrapped := fmt.Errorf("outer: %w", Wrap(KindContention, base, "commit lost"))

	assert.Equal(t, KindContention, KindOf(wrapped))
	assert.True(t, stderrors.Is(wrapped, base))
	assert.Equal(t, KindInternal, KindOf(base))
	assert.True(t, Is(NotFound("x"), KindNotFound))
	assert.False(t, Is(nil, KindInternal))
}

func TestRaiseStatus(t *testing.T) {
	tests := []struct {
		description  string
		err          error
		expectedCode int
	}{
		{description: "unauthenticated", err: Unauthenticated("who are you"), expectedCode: 401},
		{description: "bad request", err: BadRequest("nope"), expectedCode: 400},
		{description: "not found", err: NotFound("gone"), expectedCode: 404},
		{description: "forbidden", err: Forbidden("not yours"), expectedCode: 403},
		{description: "conflict", err: Conflict("full"), expectedCode: 409},
		{description: "contention", err: New(KindContention, "busy"), expectedCode: 503},
		{description: "plain error", err: stderrors.New("boom"), expectedCode: 500},
	}

	for _, test := range tests {
		app := fiber.New()
		err := test.err
		app.Get("/", func(c *fiber.Ctx) error { return Raise(c, err) })

		res, testErr := app.Test(httptest.NewRequest("GET", "/", nil), -1)
		require.NoError(t, testErr)
		body, _ := io.ReadAll(res.Body)

		assert.Equalf(t, test.expectedCode, res.StatusCode, test.description)
		assert.Containsf(t, string(body), `"status":"error"`, test.description)
		if test.expectedCode == 503 {
			assert.Equal(t, "1", res.Header.Get("Retry-After"))
		}
	}
}
