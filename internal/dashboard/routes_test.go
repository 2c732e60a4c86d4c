package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ravenswood/towncrier/internal/directory"
	"github.com/ravenswood/towncrier/internal/settings"
	"github.com/ravenswood/towncrier/internal/town"
)

type fakeSettings map[string]string

func (f fakeSettings) Get(venueID, key string) string { return f[key] }

func newTestRouter(t *testing.T) (*gin.Engine, *town.Registry, *settings.Store, *directory.Mock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := settings.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open settings db: %v", err)
	}
	store, err := settings.NewStore(db, nil)
	if err != nil {
		t.Fatalf("new settings store: %v", err)
	}

	mock := directory.NewMock()
	towns := town.NewRegistry(fakeSettings{}, mock)

	router := gin.New()
	registerRoutes(router, towns, store)
	return router, towns, store, mock
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	w := get(t, router, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestTownListEmpty(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	w := get(t, router, "/api/towns")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Towns []townView `json:"towns"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Towns) != 0 {
		t.Errorf("towns = %v, want empty", body.Towns)
	}
}

func TestTownDetail(t *testing.T) {
	router, towns, _, mock := newTestRouter(t)
	ctx := context.Background()

	mock.AddMember("alice", "Alice")
	mock.AddMember("bob", "Bob")
	tn := towns.Get("cat-1", "guild-1")
	tn.AddPlayer(ctx, "alice")
	tn.AddPlayer(ctx, "bob")
	tn.SetDead(ctx, "bob")
	tn.Lock()

	w := get(t, router, "/api/towns/cat-1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var view townView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if view.VenueID != "cat-1" || view.GuildID != "guild-1" {
		t.Errorf("view = %+v, want venue cat-1 in guild-1", view)
	}
	if !view.Locked || view.Players != 2 {
		t.Errorf("view = %+v, want 2 players locked", view)
	}
	if len(view.Seats) != 2 {
		t.Fatalf("seats = %v, want 2", view.Seats)
	}
	if view.Seats[0].Seat != 1 || view.Seats[0].MemberID != "alice" || view.Seats[0].Dead {
		t.Errorf("seat 1 = %+v", view.Seats[0])
	}
	if view.Seats[1].MemberID != "bob" || !view.Seats[1].Dead {
		t.Errorf("seat 2 = %+v", view.Seats[1])
	}
	if view.Seats[1].Votes == nil || *view.Seats[1].Votes != 1 {
		t.Errorf("seat 2 votes = %v, want 1 ghost vote", view.Seats[1].Votes)
	}
}

func TestTownDetailNotFound(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	w := get(t, router, "/api/towns/nowhere")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestTownSettings(t *testing.T) {
	router, _, store, _ := newTestRouter(t)

	if err := store.Set("cat-1", "is_enabled", "true"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set("cat-1", "emoji.dead", "(rip)"); err != nil {
		t.Fatal(err)
	}

	w := get(t, router, "/api/towns/cat-1/settings")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Settings map[string]string `json:"settings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Settings["is_enabled"] != "true" || body.Settings["emoji.dead"] != "(rip)" {
		t.Errorf("settings = %v", body.Settings)
	}
}
