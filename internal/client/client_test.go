package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/stockroom/internal/api"
	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/db"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/store"
	"github.com/erazemk/stockroom/internal/tracker"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, url string, mod ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		BaseURL:   url,
		Token:     "t",
		Timeout:   2 * time.Second,
		Retries:   0,
		RetryWait: time.Millisecond,
		Logger:    quietLogger(),
	}
	for _, m := range mod {
		m(&cfg)
	}
	return New(cfg)
}

// fakeServer records PUT bodies and can fail selected paths.
type fakeServer struct {
	mu    sync.Mutex
	data  map[string]json.RawMessage
	fail  map[string]int
	calls map[string]int
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		data:  map[string]json.RawMessage{},
		fail:  map[string]int{},
		calls: map[string]int{},
	}
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	f.calls[key]++
	if code := f.fail[key]; code != 0 {
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		body, ok := f.data[r.URL.Path]
		if !ok {
			body = json.RawMessage("[]")
		}
		w.Write(body)
	case http.MethodPut:
		raw, _ := io.ReadAll(r.Body)
		f.data[r.URL.Path] = raw
		var arr []json.RawMessage
		json.Unmarshal(raw, &arr)
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "length": len(arr)})
	}
}

func TestLoadReturnsPartialData(t *testing.T) {
	fake := newFakeServer()
	fake.data["/api/inventory"] = json.RawMessage(`[{"name":"Widget","upc":"123","model":"A1","quantity":4}]`)
	fake.fail["GET /api/activity"] = http.StatusInternalServerError
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	snap, err := c.Load(context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, "load activity")
	var se *StatusError
	assert.True(t, errors.As(err, &se))
	assert.Len(t, snap.Inventory, 1)
	assert.NotNil(t, snap.Removals)
	assert.Empty(t, snap.Activity)
}

func TestSaveContinuesAfterFailure(t *testing.T) {
	fake := newFakeServer()
	fake.fail["PUT /api/inventory"] = http.StatusBadRequest
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	err := c.Save(context.Background(), model.Snapshot{
		Activity: []model.ActivityEntry{{Type: model.ActivityItemCreation}},
	})

	require.Error(t, err)
	assert.Equal(t, 1, fake.calls["PUT /api/removals"])
	assert.Equal(t, 1, fake.calls["PUT /api/activity"])
	assert.JSONEq(t, `[]`, string(fake.data["/api/removals"]), "nil collections are sent as []")
}

func TestSaveAtomicUsesSnapshot(t *testing.T) {
	fake := newFakeServer()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.Atomic = true })
	require.NoError(t, c.Save(context.Background(), model.Snapshot{}))

	assert.Equal(t, 1, fake.calls["PUT /api/snapshot"])
	assert.Zero(t, fake.calls["PUT /api/inventory"])
}

func TestRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.Retries = 2 })
	_, err := c.Inventory(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, attempts.Load())
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"login required"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.Retries = 3 })
	_, err := c.Inventory(context.Background())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "login required", se.Message)
	assert.EqualValues(t, 1, attempts.Load())
}

func TestBreakerOpensAndFailsFast(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) {
		cfg.FailureThreshold = 2
		cfg.OpenTimeout = time.Minute
	})
	ctx := context.Background()

	for range 2 {
		_, err := c.Inventory(ctx)
		require.Error(t, err)
	}
	_, err := c.Inventory(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.EqualValues(t, 2, attempts.Load())
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.FailureThreshold = 1 })
	for range 3 {
		_, err := c.ReplaceInventory(context.Background(), nil)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
}

// Drives a tracker session through the client against the real API.
func TestSessionOverRealServer(t *testing.T) {
	database := db.NewTestDB(t)
	hash, err := auth.HashPassword("password")
	require.NoError(t, err)
	_, err = store.CreateUser(context.Background(), database, "admin", hash, model.RoleAdmin)
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(api.Config{
		DB:          database,
		Collections: store.NewSQLCollections(database),
		JWTSecret:   "secret",
	}))
	defer srv.Close()

	ctx := context.Background()
	c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.Token = "" })

	_, err = c.Inventory(ctx)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)

	require.NoError(t, c.Login(ctx, "admin", "password"))

	s := tracker.NewSession(c, tracker.WithLogger(quietLogger()))
	require.NoError(t, s.Load(ctx))
	_, err = s.AddItem(ctx, tracker.NewItem{Name: "Widget", UPC: "123", Model: "A1", Quantity: 10})
	require.NoError(t, err)
	p, err := s.StageRemoval("123", 4)
	require.NoError(t, err)
	_, err = s.ConfirmRemoval(ctx, p, tracker.RemovalDetails{Employee: "Alice", Purpose: "sale", Store: "Main"})
	require.NoError(t, err)
	require.False(t, s.Dirty())

	// A fresh session sees the persisted state.
	fresh := tracker.NewSession(c, tracker.WithLogger(quietLogger()))
	require.NoError(t, fresh.Load(ctx))
	snap := fresh.Snapshot()
	require.Len(t, snap.Inventory, 1)
	assert.Equal(t, 6, snap.Inventory[0].Quantity)
	require.Len(t, snap.Removals, 1)
	assert.Equal(t, "Alice", snap.Removals[0].Employee)
	assert.Len(t, snap.Activity, 2)

	removals, err := c.Removals(ctx, "999")
	require.NoError(t, err)
	assert.Empty(t, removals)

	require.NoError(t, c.Logout(ctx))
	_, err = c.Inventory(ctx)
	assert.Error(t, err)
}
