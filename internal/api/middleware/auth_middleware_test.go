package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/maheshrc27/autoposter/configs"
	"github.com/maheshrc27/autoposter/pkg/logger"
	"github.com/maheshrc27/autoposter/pkg/utils"
)

const secret = "test-secret"

func newApp() *fiber.App {
	cfg := config.Config{SecretKey: secret, CookieName: "session"}
	app := fiber.New()
	app.Use(NewAuthMiddleware(cfg, logger.Nop()).AuthMiddleware())
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	token, err := utils.GenerateToken(secret, 42, time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateToken(secret, 42, -time.Hour)
	require.NoError(t, err)
	foreign, err := utils.GenerateToken("other-secret", 42, time.Hour)
	require.NoError(t, err)
	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, utils.Claims{
		UserID: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "autoposter",
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, fiber.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: token}) }, fiber.StatusOK},
		{"missing", func(r *http.Request) {}, fiber.StatusUnauthorized},
		{"expired", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) }, fiber.StatusUnauthorized},
		{"wrong secret", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: foreign}) }, fiber.StatusUnauthorized},
		{"non numeric user", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+badSubject) }, fiber.StatusUnauthorized},
		{"basic scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }, fiber.StatusUnauthorized},
	}

	app := newApp()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			tc.setup(req)

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
