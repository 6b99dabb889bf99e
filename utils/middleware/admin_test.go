package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminApp(token string) *fiber.App {
	app := fiber.New()
	app.Get("/admin", RequireAdminToken(token, nil), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestRequireAdminToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		headers map[string]string
		want    int
	}{
		{name: "not configured", token: "", headers: map[string]string{AdminTokenHeader: ""}, want: fiber.StatusServiceUnavailable},
		{name: "missing", token: "t0ken", want: fiber.StatusUnauthorized},
		{name: "wrong header", token: "t0ken", headers: map[string]string{AdminTokenHeader: "nope"}, want: fiber.StatusUnauthorized},
		{name: "header", token: "t0ken", headers: map[string]string{AdminTokenHeader: "t0ken"}, want: fiber.StatusOK},
		{name: "bearer", token: "t0ken", headers: map[string]string{fiber.HeaderAuthorization: "Bearer t0ken"}, want: fiber.StatusOK},
		{name: "basic is ignored", token: "t0ken", headers: map[string]string{fiber.HeaderAuthorization: "Basic t0ken"}, want: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := newAdminApp(tt.token).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
