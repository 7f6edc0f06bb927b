package serverutils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func secretApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(ServiceSecretMiddleware(secret))
	app.Get("/ping", func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("pong", nil))
	})
	return app
}

func TestServiceSecretMiddlewareAllowsMatchingSecret(t *testing.T) {
	app := secretApp("s3cret")

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("x-service-secret", "s3cret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestServiceSecretMiddlewareRejectsMissingHeader(t *testing.T) {
	app := secretApp("s3cret")

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestServiceSecretMiddlewareRejectsWrongSecret(t *testing.T) {
	app := secretApp("s3cret")

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("x-service-secret", "wrong")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestServiceSecretMiddlewareDisabledWhenUnset(t *testing.T) {
	app := secretApp("")

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestServiceSecretMiddlewareTrimsWhitespace(t *testing.T) {
	app := secretApp("s3cret")

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("x-service-secret", "  s3cret  ")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
