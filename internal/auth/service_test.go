package auth

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newTestService(t *testing.T, apiKey string) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.MinCost)
	require.NoError(t, err)
	return NewService(testSecret, string(hash), 30*time.Minute)
}

func TestIssueSignsAdminToken(t *testing.T) {
	svc := newTestService(t, "s3cret")

	tok, err := svc.Issue("s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(1800), tok.ExpiresIn)

	parsed, err := jwt.Parse(tok.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	assert.Equal(t, jwt.SigningMethodHS256.Alg(), parsed.Method.Alg())

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, claims[ClaimRole])
}

func TestIssueRejectsWrongKey(t *testing.T) {
	svc := newTestService(t, "s3cret")

	_, err := svc.Issue("guess")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Issue("")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestIssueNotConfigured(t *testing.T) {
	_, err := NewService("", "", 0).Issue("anything")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestHashAPIKey(t *testing.T) {
	hash, err := HashAPIKey("k")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("k")))
}

func TestHandlerToken(t *testing.T) {
	app := fiber.New()
	app.Post("/admin/token", NewHandler(newTestService(t, "s3cret")).Token)

	send := func(body string) (int, map[string]any) {
		req := httptest.NewRequest(fiber.MethodPost, "/admin/token", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var decoded map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
		return resp.StatusCode, decoded
	}

	status, body := send(`{"api_key":"s3cret"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["access_token"])

	status, _ = send(`{"api_key":"nope"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
