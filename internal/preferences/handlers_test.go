package preferences

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-hikinghelper/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func newApp(store *Store) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/preferences"), store, func(c *fiber.Ctx) error {
		auth.SetUserID(c, "user-1")
		return c.Next()
	})
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		raw, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestPreferencesHandlersGetAndPatch(t *testing.T) {
	mock := newMock(t)
	_, cache := newCache(t)
	app := newApp(NewStore(mock, cache, 0))

	expectNoRows(mock, "user-1")
	resp := send(t, app, http.MethodGet, "/preferences/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status %d", resp.StatusCode)
	}
	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil || rec.Difficulty != "Moderate" {
		t.Fatalf("unexpected body %+v (%v)", rec, err)
	}

	expectLock(mock, "user-1", defaultRow()...)
	mock.ExpectRollback()
	resp = send(t, app, http.MethodPatch, "/preferences/", map[string]any{"min_distance": 20})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for inverted range, got %d", resp.StatusCode)
	}

	expectLock(mock, "user-1", defaultRow()...)
	expectSave(mock, "user-1", "Easy", 0.0, 10.0, "Moderate", []string{}, []int{}, false)
	resp = send(t, app, http.MethodPatch, "/preferences/", map[string]any{"difficulty": "Easy"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status %d", resp.StatusCode)
	}
}

func TestPreferencesHandlersRegionsAndCompleted(t *testing.T) {
	mock := newMock(t)
	app := newApp(NewStore(mock, nil, 0))

	expectLock(mock, "user-1", defaultRow()...)
	expectSave(mock, "user-1", "Moderate", 0.0, 10.0, "Moderate", []string{"GA"}, []int{}, false)
	resp := send(t, app, http.MethodPut, "/preferences/regions", map[string]any{"regions": []string{"georgia"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put regions status %d", resp.StatusCode)
	}

	expectLock(mock, "user-1", defaultRow()...)
	expectSave(mock, "user-1", "Moderate", 0.0, 10.0, "Moderate", []string{}, []int{301}, false)
	resp = send(t, app, http.MethodPost, "/preferences/completed/301", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark completed status %d", resp.StatusCode)
	}

	resp = send(t, app, http.MethodPost, "/preferences/completed/abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for bad id, got %d", resp.StatusCode)
	}

	expectLock(mock, "user-1", completedRow(301)...)
	expectSave(mock, "user-1", "Moderate", 0.0, 10.0, "Moderate", []string{}, []int{}, false)
	resp = send(t, app, http.MethodDelete, "/preferences/completed", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear completed status %d", resp.StatusCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPreferencesHandlersOnboarding(t *testing.T) {
	mock := newMock(t)
	app := newApp(NewStore(mock, nil, 0))

	resp := send(t, app, http.MethodPost, "/preferences/onboarding", map[string]string{"experience": "beginner"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for partial answers, got %d", resp.StatusCode)
	}

	expectLock(mock, "user-1", defaultRow()...)
	expectSave(mock, "user-1", "Easy", 0.0, 3.0, "Low", []string{}, []int{}, true)
	resp = send(t, app, http.MethodPost, "/preferences/onboarding", Onboarding{
		Experience: "beginner", TypicalDistance: "short", ElevationComfort: "low",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("onboarding status %d", resp.StatusCode)
	}
}

func TestPreferencesHandlersSaveFailure(t *testing.T) {
	mock := newMock(t)
	app := newApp(NewStore(mock, nil, 0))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user_preferences`).WillReturnError(errNoDB)
	mock.ExpectRollback()
	resp := send(t, app, http.MethodDelete, "/preferences/regions", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
