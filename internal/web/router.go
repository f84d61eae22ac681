package web

import (
	"database/sql"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/erazemk/stockroom/internal/store"
	webembed "github.com/erazemk/stockroom/web"
)

// Config holds the page router's dependencies.
type Config struct {
	DB          *sql.DB
	Collections store.Collections
	JWTSecret   string
	TokenTTL    time.Duration
	Stores      []string
	Logger      *slog.Logger
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(cfg Config) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		DB:          cfg.DB,
		Collections: cfg.Collections,
		Templates:   templates,
		JWTSecret:   cfg.JWTSecret,
		TokenTTL:    cfg.TokenTTL,
		Stores:      slices.Clone(cfg.Stores),
		Logger:      cfg.Logger,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(cfg.JWTSecret, cfg.DB)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	mux.Handle("GET /{$}", http.RedirectHandler("/inventory", http.StatusSeeOther))
	mux.Handle("GET /inventory", cookieAuth(http.HandlerFunc(s.InventoryPage)))
	mux.Handle("POST /inventory", cookieAuth(http.HandlerFunc(s.AddItemSubmit)))
	mux.Handle("POST /inventory/adjust", cookieAuth(http.HandlerFunc(s.AdjustSubmit)))
	mux.Handle("POST /inventory/remove", cookieAuth(http.HandlerFunc(s.StageRemovalSubmit)))
	mux.Handle("POST /inventory/remove/confirm", cookieAuth(http.HandlerFunc(s.ConfirmRemovalSubmit)))
	mux.Handle("GET /removals", cookieAuth(http.HandlerFunc(s.RemovalsPage)))
	mux.Handle("GET /activity", cookieAuth(http.HandlerFunc(s.ActivityPage)))

	return mux, nil
}
