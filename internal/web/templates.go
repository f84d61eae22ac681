package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/store"
	webembed "github.com/erazemk/stockroom/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"ago": humanize.Time,
		"stamp": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04")
		},
		"comma": func(n int) string { return humanize.Comma(int64(n)) },
	}
}

var pages = []string{
	"login.html",
	"inventory.html",
	"remove.html",
	"removals.html",
	"activity.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layout, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		body, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl, err := template.New(page).Funcs(FuncMap()).Parse(string(layout))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		if tmpl, err = tmpl.Parse(string(body)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		ts.templates[page] = tmpl
	}
	return ts, nil
}

// Render renders a template with the given status and data.
func (ts *Templates) Render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	Active  string
	User    *auth.Claims
	Error   string
	Success string
	// Warning reports a collection that could not be loaded or saved.
	Warning string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB          *sql.DB
	Collections store.Collections
	Templates   *Templates
	JWTSecret   string
	TokenTTL    time.Duration
	// Stores lists allowed removal destinations. Empty allows any name.
	Stores []string
	Logger *slog.Logger

	// mu serializes load-mutate-save across requests.
	mu sync.Mutex
}
