package web

import (
	"net/http"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/store"
)

func loginFailed(s *Server, w http.ResponseWriter, status int, msg string) {
	s.Templates.Render(w, status, "login.html", &PageData{Title: "Log in", Error: msg})
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, http.StatusOK, "login.html", &PageData{Title: "Log in"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		loginFailed(s, w, http.StatusBadRequest, "Enter your username and password.")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err != nil {
		s.Logger.Error("looking up user", "error", err)
		loginFailed(s, w, http.StatusInternalServerError, "Login failed, try again.")
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		s.Logger.Warn("login failed", "username", username, "remote", r.RemoteAddr)
		loginFailed(s, w, http.StatusUnauthorized, "Wrong username or password.")
		return
	}

	token, claims, err := auth.GenerateToken(s.JWTSecret, s.TokenTTL, user.ID, user.Username, user.Role)
	if err != nil {
		s.Logger.Error("generating token", "error", err)
		loginFailed(s, w, http.StatusInternalServerError, "Login failed, try again.")
		return
	}

	setAuthCookie(w, token, int(claims.ExpiresAt.Sub(claims.IssuedAt.Time).Seconds()))
	s.Logger.Info("user logged in", "user", user.Username)
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

// Logout handles POST /logout. The token is revoked so a copied cookie
// stops working too.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := cookieClaims(r, s.JWTSecret, s.DB)
	if err == nil {
		if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
			s.Logger.Error("revoking token", "error", err)
		} else {
			s.Logger.Info("user logged out", "user", claims.Username)
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
