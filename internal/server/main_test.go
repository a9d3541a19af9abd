package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"classhub/internal/config"
	"classhub/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		JWTSecret: "test_secret",
		Port:      "0",
		Env:       "test",
		UploadDir: t.TempDir(),
		AvatarDir: t.TempDir(),
		PagesDir:  t.TempDir(),
	}
}

// newTestServer builds a fully wired Server over an in-memory sqlite
// database, with no Redis (caching and rate limits fail open).
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	require.NoError(t, database.Migrate(db), "migrate sqlite")

	s, err := NewServerWithDeps(testConfig(t), db, nil)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func jsonRequest(t *testing.T, method, target string, payload any, token string) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// registerUser registers an account through the API and returns its token.
func registerUser(t *testing.T, app *fiber.App, username, email string) string {
	t.Helper()
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     username,
		"username": username,
		"email":    email,
		"password": "sturdy-pass1",
	}, ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

// createClassroom creates a classroom through the API and returns its ID.
func createClassroom(t *testing.T, app *fiber.App, token, topic, name string) uint {
	t.Helper()
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/classrooms", map[string]string{
		"topic":       topic,
		"name":        name,
		"description": "a place to study " + topic,
	}, token))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var classroom struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &classroom)
	require.NotZero(t, classroom.ID)
	return classroom.ID
}
