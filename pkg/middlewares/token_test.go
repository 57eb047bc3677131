package middlewares

import (
	"io"
	"net/http/httptest"
	"testing"

	t_token "owatch_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTMiddleware())
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(TokenSessionID).(string))
	})
	return app
}

func TestJWTMiddleware(t *testing.T) {
	t_token.SetSecret("middleware-secret")
	tok, err := t_token.GenerateJWT("abc", string(t_token.RoleViewer), "test")
	require.NoError(t, err)
	app := newApp()

	t.Run("query token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/me?auth="+tok, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "abc", string(body))
	})

	t.Run("cookie token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Cookie", CookieToken+"="+tok)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("missing token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/me?auth=garbage", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
