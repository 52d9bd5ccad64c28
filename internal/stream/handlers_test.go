package stream

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backend-hikinghelper/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func fakeAuth(c *fiber.Ctx) error {
	id := c.Query("user")
	if id == "" {
		return fiber.ErrUnauthorized
	}
	auth.SetUserID(c, id)
	return c.Next()
}

func serve(t *testing.T, hub *Hub) string {
	t.Helper()
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), hub, fakeAuth)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "ws://" + ln.Addr().String()
}

func TestStreamRequiresUpgrade(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), NewHub(nil), fakeAuth)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stream/ws?user=user-1", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/stream/ws", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", resp.StatusCode)
	}
}

func TestStreamDeliversUserEvents(t *testing.T) {
	hub := NewHub(nil)
	base := serve(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/stream/ws?user=user-1", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.Connected("user-1") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	hub.Notify(context.Background(), "user-1", EventPreferencesUpdated)
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !strings.Contains(string(msg), EventPreferencesUpdated) {
		t.Fatalf("unexpected message %s", msg)
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	conn.Close()

	deadline = time.Now().Add(time.Second)
	for hub.Connected("user-1") != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Connected("user-1") != 0 {
		t.Fatalf("expected client to be unregistered after close")
	}
}
