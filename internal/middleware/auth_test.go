package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hirocks/internal/auth"
	"hirocks/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestAuthenticate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	revocations := auth.NewRedisRevocations(rdb)

	issuer := auth.NewIssuer(testSecret, "hirocks-auth", "hirocks-api", time.Hour)
	verifier := auth.NewVerifier(testSecret, "hirocks-auth", "hirocks-api", revocations)

	app := fiber.New()
	app.Use(Authenticate(verifier))
	app.Get("/public", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": auth.UserIDFrom(c.UserContext())})
	})
	app.Get("/private", AuthRequired, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	good, err := issuer.Issue(123, "runner@hirocks.kr", "러너")
	require.NoError(t, err)
	foreign, err := auth.NewIssuer("another-secret-key-000000000000000000000000", "hirocks-auth", "hirocks-api", time.Hour).Issue(5, "", "")
	require.NoError(t, err)

	tests := []struct {
		name           string
		path           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{name: "anonymous public read", path: "/public", expectedStatus: http.StatusOK},
		{name: "authenticated public read", path: "/public", authHeader: "Bearer " + good, expectedStatus: http.StatusOK, expectedUserID: 123},
		{name: "authenticated private", path: "/private", authHeader: "Bearer " + good, expectedStatus: http.StatusOK, expectedUserID: 123},
		{name: "anonymous private", path: "/private", expectedStatus: http.StatusUnauthorized},
		{name: "invalid format", path: "/public", authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "wrong secret", path: "/public", authHeader: "Bearer " + foreign, expectedStatus: http.StatusUnauthorized},
		{name: "garbage token", path: "/private", authHeader: "Bearer not.a.jwt", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			if tt.expectedStatus == http.StatusOK {
				var result map[string]interface{}
				require.NoError(t, json.Unmarshal(body, &result))
				assert.Equal(t, float64(tt.expectedUserID), result["userID"])
				return
			}
			var errResp models.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.Equal(t, models.CodeUnauthenticated, errResp.Code)
		})
	}

	t.Run("revoked token", func(t *testing.T) {
		caller, err := verifier.Verify(t.Context(), good)
		require.NoError(t, err)
		require.NoError(t, revocations.Revoke(t.Context(), caller.TokenID, caller.ExpiresAt))

		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		req.Header.Set("Authorization", "Bearer "+good)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
