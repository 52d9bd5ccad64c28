package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-hikinghelper/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(svc *Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/chat"), svc, func(c *fiber.Ctx) error {
		auth.SetUserID(c, "user-1")
		return c.Next()
	})
	return app
}

func post(t *testing.T, app *fiber.App, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/chat/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestChatHandler(t *testing.T) {
	app := newApp(NewService(&fakeGenerator{reply: "Go early."}, nil))

	resp := post(t, app, askRequest{Message: "When should I start?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reply Reply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, "Go early.", reply.Text)

	resp = post(t, app, askRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatHandlerUnavailable(t *testing.T) {
	resp := post(t, newApp(NewService(nil, nil)), askRequest{Message: "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestChatHandlerGeneratorFailure(t *testing.T) {
	resp := post(t, newApp(NewService(&fakeGenerator{err: errors.New("boom")}, nil)), askRequest{Message: "hi"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestChatHandlerRateLimited(t *testing.T) {
	svc := NewService(&fakeGenerator{reply: "ok"}, nil)
	svc.LimitPerUser(1)
	app := newApp(svc)

	require.Equal(t, http.StatusOK, post(t, app, askRequest{Message: "one"}).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, post(t, app, askRequest{Message: "two"}).StatusCode)
}
