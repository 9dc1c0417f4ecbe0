package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperengineering/hasad/internal/api"
	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/store"
	"github.com/hyperengineering/hasad/internal/types"
	"github.com/hyperengineering/hasad/pkg/hasad"
)

const testAPIKey = "test-api-key"

// testServer is an in-process server whose handler can be swapped out to
// simulate an outage without changing its URL.
type testServer struct {
	*httptest.Server
	Store *store.SQLiteStore

	mu   sync.RWMutex
	down bool
	api  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "hasad.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := &testServer{
		Store: s,
		api:   api.NewRouter(api.NewHandler(s, nil, testAPIKey, "1.0.0")),
	}
	ts.Server = httptest.NewServer(http.HandlerFunc(ts.serve))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) serve(w http.ResponseWriter, r *http.Request) {
	ts.mu.RLock()
	down := ts.down
	ts.mu.RUnlock()
	if down {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	ts.api.ServeHTTP(w, r)
}

// SetDown makes every request fail with 503 until cleared.
func (ts *testServer) SetDown(down bool) {
	ts.mu.Lock()
	ts.down = down
	ts.mu.Unlock()
}

// storedState reads userID's aggregate straight from the store.
func (ts *testServer) storedState(t *testing.T, userID string) *types.State {
	t.Helper()
	st, err := ts.Store.GetState(context.Background(), userID, today())
	require.NoError(t, err)
	return st
}

func today() dates.Key {
	return dates.Today(time.Now)
}

// newClient returns an initialized client with a short debounce window.
// The client is shut down when the test ends.
func newClient(t *testing.T, ts *testServer, userID string) *hasad.Client {
	t.Helper()

	c, err := hasad.New(hasad.Config{
		BaseURL:        ts.URL,
		APIKey:         testAPIKey,
		UserID:         userID,
		DebounceWindow: 20 * time.Millisecond,
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, c.Initialize(context.Background()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Shutdown(ctx)
	})
	return c
}

// waitForWrites blocks until the client has completed at least n writes.
func waitForWrites(t *testing.T, c *hasad.Client, n int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Stats().Writes >= n
	}, 5*time.Second, 10*time.Millisecond, "expected %d writes, stats: %+v", n, c.Stats())
}

func shutdown(t *testing.T, c *hasad.Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Shutdown(ctx))
}
