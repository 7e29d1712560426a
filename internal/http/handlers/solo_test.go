package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"parlor/internal/domain"

	"github.com/gin-gonic/gin"
)

// stubRunStore serves canned responses for the run endpoints.
type stubRunStore struct {
	recentUser string
	recentErr  error
}

func (s *stubRunStore) Save(ctx context.Context, runID, username string, state json.RawMessage) error {
	return nil
}

func (s *stubRunStore) Load(ctx context.Context, runID string) (json.RawMessage, error) {
	return nil, domain.ErrNotFound
}

func (s *stubRunStore) Delete(ctx context.Context, runID string) (bool, error) {
	return false, nil
}

func (s *stubRunStore) RecentUser(ctx context.Context) (string, error) {
	return s.recentUser, s.recentErr
}

func (s *stubRunStore) ActiveRunForUser(ctx context.Context, username string) (string, json.RawMessage, error) {
	return "", nil, domain.ErrNotFound
}

func newRunRouter(store RunStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := &Handler{RunRepo: store}
	r.GET("/recent-user", h.RecentUser)
	r.GET("/load/:run_id", h.LoadRun)
	return r
}

func TestRecentUserEmptyDatabase(t *testing.T) {
	r := newRunRouter(&stubRunStore{recentErr: domain.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/recent-user", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200 when no user exists", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if v, ok := body["username"]; !ok || v != nil {
		t.Fatalf("username = %v; want explicit null", v)
	}
}

func TestRecentUserFound(t *testing.T) {
	r := newRunRouter(&stubRunStore{recentUser: "alice"})

	req := httptest.NewRequest(http.MethodGet, "/recent-user", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body["username"] != "alice" {
		t.Fatalf("username = %v; want alice", body["username"])
	}
}

func TestLoadRunNotFound(t *testing.T) {
	r := newRunRouter(&stubRunStore{})

	req := httptest.NewRequest(http.MethodGet, "/load/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", w.Code)
	}
}
