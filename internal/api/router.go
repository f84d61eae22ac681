package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/store"
)

// Config holds the router's dependencies.
type Config struct {
	// DB holds accounts and token revocations.
	DB *sql.DB
	// Collections holds inventory, removals and activity.
	Collections store.Collections
	JWTSecret   string
	TokenTTL    time.Duration
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: cfg.DB, JWTSecret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL}
	usersHandler := &UsersHandler{DB: cfg.DB}
	collections := &CollectionsHandler{C: cfg.Collections}

	authMW := AuthMiddleware(cfg.JWTSecret, cfg.DB)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /healthz", Health(cfg.DB))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Collections (any logged-in user).
	mux.Handle("GET /api/inventory", authMW(http.HandlerFunc(collections.GetInventory)))
	mux.Handle("PUT /api/inventory", authMW(http.HandlerFunc(collections.PutInventory)))
	mux.Handle("GET /api/removals", authMW(http.HandlerFunc(collections.GetRemovals)))
	mux.Handle("PUT /api/removals", authMW(http.HandlerFunc(collections.PutRemovals)))
	mux.Handle("GET /api/activity", authMW(http.HandlerFunc(collections.GetActivity)))
	mux.Handle("PUT /api/activity", authMW(http.HandlerFunc(collections.PutActivity)))
	mux.Handle("GET /api/snapshot", authMW(http.HandlerFunc(collections.GetSnapshot)))
	mux.Handle("PUT /api/snapshot", authMW(http.HandlerFunc(collections.PutSnapshot)))

	return mux
}

// Health reports whether the database answers.
func Health(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
