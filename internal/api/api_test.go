package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/db"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/store"
)

const testJWTSecret = "test-secret"

type testServer struct {
	*httptest.Server
	token string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	router := LoggingMiddleware(NewRouter(Config{
		DB:          database,
		Collections: store.NewSQLCollections(database),
		JWTSecret:   testJWTSecret,
	}))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	hash, _ := auth.HashPassword("password")
	store.CreateUser(context.Background(), database, "admin", hash, model.RoleAdmin)

	return &testServer{Server: server, token: login(t, server.URL, "admin", "password")}
}

func login(t *testing.T, baseURL, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(baseURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var out loginResponse
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Token == "" {
		t.Fatal("empty token from login")
	}
	return out.Token
}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLoginEndpoint(t *testing.T) {
	s := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(s.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Post(s.URL+"/api/auth/login", "application/json", strings.NewReader("{"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestInventoryPutThenGet(t *testing.T) {
	s := setupTestServer(t)

	items := []model.InventoryItem{{Name: "Widget", UPC: "123", Model: "A1", Quantity: 10}}
	resp := s.do(t, "PUT", "/api/inventory", items)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var wr writeResponse
	json.NewDecoder(resp.Body).Decode(&wr)
	if wr.Status != "ok" || wr.Length != 1 {
		t.Errorf("unexpected write response %+v", wr)
	}

	resp = s.do(t, "GET", "/api/inventory", nil)
	var got []model.InventoryItem
	json.NewDecoder(resp.Body).Decode(&got)
	if len(got) != 1 || got[0] != items[0] {
		t.Errorf("expected %v, got %v", items, got)
	}
}

func TestEmptyCollectionsEncodeAsArrays(t *testing.T) {
	s := setupTestServer(t)

	for _, path := range []string{"/api/inventory", "/api/removals", "/api/activity"} {
		resp := s.do(t, "GET", path, nil)
		var raw bytes.Buffer
		raw.ReadFrom(resp.Body)
		if strings.TrimSpace(raw.String()) != "[]" {
			t.Errorf("%s: expected [], got %q", path, raw.String())
		}
	}
}

func TestPutRejectsInvalidBodies(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"not json", "/api/inventory", "not json"},
		{"object instead of array", "/api/inventory", `{"name":"x"}`},
		{"negative quantity", "/api/inventory", []model.InventoryItem{{Name: "W", UPC: "1", Model: "M", Quantity: -1}}},
		{"duplicate upc", "/api/inventory", []model.InventoryItem{{Name: "W", UPC: "1"}, {Name: "X", UPC: "1"}}},
		{"zero removal amount", "/api/removals", []model.RemovalRecord{{UPC: "1", Amount: 0}}},
		{"untyped activity", "/api/activity", []model.ActivityEntry{{Field: "f"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, "PUT", tt.path, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestRemovalsFilterByUPC(t *testing.T) {
	s := setupTestServer(t)

	records := []model.RemovalRecord{
		{ItemName: "Widget", UPC: "123", Amount: 1, Employee: "Alice", Purpose: "sale", Store: "Main"},
		{ItemName: "Gadget", UPC: "456", Amount: 2, Employee: "Bob", Purpose: "sale", Store: "North"},
	}
	resp := s.do(t, "PUT", "/api/removals", records)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = s.do(t, "GET", "/api/removals?upc=456", nil)
	var got []model.RemovalRecord
	json.NewDecoder(resp.Body).Decode(&got)
	if len(got) != 1 || got[0].Employee != "Bob" {
		t.Errorf("expected Bob's removal only, got %+v", got)
	}
}

func TestSnapshotPutThenGet(t *testing.T) {
	s := setupTestServer(t)

	snap := model.Snapshot{
		Inventory: []model.InventoryItem{{Name: "Widget", UPC: "123", Model: "A1", Quantity: 3}},
		Activity:  []model.ActivityEntry{{Type: model.ActivityItemCreation, Field: "New Item Added", Value: "Widget"}},
	}
	resp := s.do(t, "PUT", "/api/snapshot", snap)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = s.do(t, "GET", "/api/snapshot", nil)
	var got model.Snapshot
	json.NewDecoder(resp.Body).Decode(&got)
	if len(got.Inventory) != 1 || len(got.Activity) != 1 || got.Removals == nil {
		t.Errorf("unexpected snapshot %+v", got)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	s := setupTestServer(t)

	resp, _ := http.Get(s.URL + "/api/inventory")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Get(s.URL + "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected healthz to be public, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCookieAuth(t *testing.T) {
	s := setupTestServer(t)

	req, _ := http.NewRequest("GET", s.URL+"/api/inventory", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: s.token})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected cookie token to authenticate, got %d", resp.StatusCode)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	s := setupTestServer(t)

	resp := s.do(t, "POST", "/api/auth/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = s.do(t, "GET", "/api/inventory", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestChangePassword(t *testing.T) {
	s := setupTestServer(t)

	resp := s.do(t, "PUT", "/api/auth/password", changePasswordRequest{CurrentPassword: "wrong", NewPassword: "new-password"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong current password, got %d", resp.StatusCode)
	}

	resp = s.do(t, "PUT", "/api/auth/password", changePasswordRequest{CurrentPassword: "password", NewPassword: "short"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for short password, got %d", resp.StatusCode)
	}

	resp = s.do(t, "PUT", "/api/auth/password", changePasswordRequest{CurrentPassword: "password", NewPassword: "new-password"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	login(t, s.URL, "admin", "new-password")
}

func TestUsersAdminOnly(t *testing.T) {
	s := setupTestServer(t)

	resp := s.do(t, "POST", "/api/users", createUserRequest{Username: "clerk", Password: "clerk-pass"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created model.User
	json.NewDecoder(resp.Body).Decode(&created)
	if created.Role != model.RoleUser {
		t.Errorf("expected default role user, got %q", created.Role)
	}

	resp = s.do(t, "POST", "/api/users", createUserRequest{Username: "clerk", Password: "clerk-pass"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate, got %d", resp.StatusCode)
	}

	clerk := &testServer{Server: s.Server, token: login(t, s.URL, "clerk", "clerk-pass")}
	resp = clerk.do(t, "GET", "/api/users", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user listing users, got %d", resp.StatusCode)
	}
	resp = clerk.do(t, "GET", "/api/inventory", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected users to read collections, got %d", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := setupTestServer(t)

	resp := s.do(t, "GET", "/api/inventory", nil)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}
