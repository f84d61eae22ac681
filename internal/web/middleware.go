package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"

var (
	errNoCookie = errors.New("no session cookie")
	errRevoked  = errors.New("token revoked")
)

// cookieClaims returns the claims of the request's token cookie if it is
// valid and has not been revoked.
func cookieClaims(r *http.Request, secret string, db *sql.DB) (*auth.Claims, error) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, errNoCookie
	}

	claims, err := auth.ValidateToken(secret, cookie.Value)
	if err != nil {
		return nil, err
	}

	revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking revocation: %w", err)
	}
	if revoked {
		return claims, errRevoked
	}
	return claims, nil
}

// CookieAuthMiddleware sends requests without a usable session cookie to
// the login page and adds the claims to the context of the rest.
func CookieAuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := cookieClaims(r, secret, db)
			if err != nil {
				if !errors.Is(err, errNoCookie) {
					slog.Debug("rejecting session cookie", "path", r.URL.Path, "error", err)
					clearAuthCookie(w)
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), webClaimsKey, claims)))
		})
	}
}

// setAuthCookie stores token in the session cookie. A negative maxAge
// deletes it.
func setAuthCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAuthCookie(w http.ResponseWriter) {
	setAuthCookie(w, "", -1)
}

// GetWebClaims returns the claims CookieAuthMiddleware stored, or nil.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}
