package middleware_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"admin-dashboard/database"
	"admin-dashboard/middleware"
	"admin-dashboard/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubParser map[string]uint

func (s stubParser) ParseToken(token string) (uint, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

func authApp(enabled bool) *fiber.App {
	app := fiber.New()
	app.Get("/whoami", middleware.AuthMiddleware(stubParser{"good": 42}, enabled), func(c *fiber.Ctx) error {
		return c.SendString(fmt.Sprint(middleware.UserID(c)))
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	app := authApp(true)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic good", fiber.StatusUnauthorized},
		{"bad token", "Bearer nope", fiber.StatusUnauthorized},
		{"valid token", "Bearer good", fiber.StatusOK},
		{"lower-case scheme", "bearer good", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			resp, err := app.Test(testutil.MakeRequest("GET", "/whoami", nil, headers))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.want != fiber.StatusOK {
				env := testutil.DecodeEnvelope(t, resp)
				assert.False(t, env.Success)
				assert.NotEmpty(t, env.Error)
			}
		})
	}
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	resp, err := authApp(false).Test(testutil.MakeRequest("GET", "/whoami", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireDBMiddleware(t *testing.T) {
	dir := t.TempDir()
	pool := database.NewPool(func(name string) (*gorm.DB, error) {
		if name == "offline" {
			return nil, errors.New("connection refused")
		}
		return gorm.Open(sqlite.Open(filepath.Join(dir, name+".db")), &gorm.Config{})
	})
	t.Cleanup(pool.CloseAll)

	app := fiber.New()
	app.Get("/db/:name", middleware.RequireDBMiddleware(pool), func(c *fiber.Ctx) error {
		return c.SendString(c.Params("name"))
	})

	resp, err := app.Test(testutil.MakeRequest("GET", "/db/shop", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"shop"}, pool.Names())

	resp, err = app.Test(testutil.MakeRequest("GET", "/db/bad-name", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(testutil.MakeRequest("GET", "/db/offline", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, []string{"shop"}, pool.Names())
}
