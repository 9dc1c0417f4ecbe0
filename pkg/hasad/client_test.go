package hasad

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/hyperengineering/hasad/internal/state"
	"github.com/hyperengineering/hasad/internal/types"
)

// stateServer is an in-memory stand-in for the Hasad state endpoints.
type stateServer struct {
	mu     sync.Mutex
	stored *types.State
	puts   int
	auth   string
}

func (s *stateServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = r.Header.Get("Authorization")

	switch {
	case r.URL.Path == "/api/v1/health":
		w.Write([]byte(`{"status":"healthy","version":"test","users":1}`))
	case r.URL.Path == "/api/v1/users/alice/state" && r.Method == http.MethodGet:
		if s.stored == nil {
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"title":"Internal Server Error","detail":"database locked"}`))
			return
		}
		json.NewEncoder(w).Encode(s.stored)
	case r.URL.Path == "/api/v1/users/alice/state" && r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		var st types.State
		if err := json.Unmarshal(body, &st); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.stored = &st
		s.puts++
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, srv *stateServer) *Client {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	c, err := New(Config{
		BaseURL:        ts.URL,
		APIKey:         "secret",
		UserID:         "alice",
		DebounceWindow: time.Hour,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_RequiresURLAndUser(t *testing.T) {
	if _, err := New(Config{UserID: "alice"}); err == nil {
		t.Error("expected error for missing BaseURL")
	}
	if _, err := New(Config{BaseURL: "http://localhost"}); err == nil {
		t.Error("expected error for missing UserID")
	}
}

func TestClient_InitializeLoadsStoredState(t *testing.T) {
	stored := types.NewState("2024-01-01")
	stored = state.MarkAllPrayed("2024-01-02")(stored)
	srv := &stateServer{stored: &stored}
	c := newTestClient(t, srv)

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if got := c.State().PrayerLogs.Len(); got != 1 {
		t.Errorf("PrayerLogs.Len() = %d, want 1", got)
	}
	if srv.auth != "Bearer secret" {
		t.Errorf("Authorization = %q, want bearer token", srv.auth)
	}
}

func TestClient_InitializeFallsBackToDefaults(t *testing.T) {
	c := newTestClient(t, &stateServer{})

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	s := c.State()
	if s.QuranState.KhatmaGoalDays != types.DefaultKhatmaGoalDays {
		t.Errorf("KhatmaGoalDays = %d, want default", s.QuranState.KhatmaGoalDays)
	}
	if s.HashishState.StartDate == "" {
		t.Error("expected synthesized hashish start date")
	}
}

func TestClient_ShutdownFlushesPendingWrite(t *testing.T) {
	stored := types.NewState("2024-01-01")
	srv := &stateServer{stored: &stored}
	c := newTestClient(t, srv)
	ctx := context.Background()

	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	for _, p := range types.AllPrayers {
		if _, err := c.Apply(state.TogglePrayer("2024-01-02", p)); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}
	if srv.puts != 0 {
		t.Fatalf("puts = %d before flush, want 0", srv.puts)
	}

	if err := c.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if srv.puts != 1 {
		t.Errorf("puts = %d, want exactly 1", srv.puts)
	}
	l, ok := srv.stored.PrayerLogs.Find("2024-01-02")
	if !ok || len(l.Completed) != len(types.AllPrayers) {
		t.Errorf("stored prayer log = %+v, want all prayers", l)
	}

	if _, err := c.Apply(state.MarkAllPrayed("2024-01-03")); !errors.Is(err, ErrClosed) {
		t.Errorf("Apply() after shutdown error = %v, want ErrClosed", err)
	}
}

func TestHTTPRemote_DecodesProblem(t *testing.T) {
	ts := httptest.NewServer(&stateServer{})
	defer ts.Close()

	r := NewHTTPRemote(ts.URL, "secret", "alice", time.Second)
	_, err := r.Fetch(context.Background())

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Fetch() error = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusInternalServerError || se.Detail != "database locked" {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t, &stateServer{})

	h, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if h.Status != "healthy" || h.Users != 1 {
		t.Errorf("Ping() = %+v", h)
	}
}
