package web

import (
	"errors"
	"net/http"
	"strings"

	"sitereports/internal/sitereports"
	"sitereports/internal/web/templates"
)

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, templates.Login, authPage{layout: s.newLayout(w, r, "Log in")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))

	session, err := s.service.Login(r.Context(), username, r.PostForm.Get("password"))
	if errors.Is(err, sitereports.ErrInvalidCredentials) {
		page := authPage{layout: s.newLayout(w, r, "Log in"), Submitted: username}
		page.Flash = &Flash{Kind: flashDanger, Message: "Invalid username or password."}
		s.render(w, http.StatusUnauthorized, templates.Login, page)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.setSessionCookie(w, session)
	s.setFlash(w, flashSuccess, "Welcome back, "+session.Username+"!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, templates.Register, authPage{layout: s.newLayout(w, r, "Register")})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	form := r.PostForm

	_, err := s.service.Register(r.Context(), form.Get("username"), form.Get("password"), form.Get("confirm_password"))
	if verr, ok := sitereports.IsValidation(err); ok {
		s.render(w, http.StatusUnprocessableEntity, templates.Register, authPage{
			layout:    s.newLayout(w, r, "Register"),
			Submitted: strings.TrimSpace(form.Get("username")),
			Errors:    verr.Fields,
		})
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.setFlash(w, flashSuccess, "Account created! Please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := s.service.Logout(r.Context(), c.Value); err != nil {
			s.logger.Warn("ending session failed", "error", err)
		}
	}

	s.clearSessionCookie(w)
	s.setFlash(w, flashInfo, "Logged out successfully.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
