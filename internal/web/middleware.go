package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sitereports/internal/model"
	"sitereports/internal/sitereports"
)

// sessionCookie carries the session token of a logged in user.
const sessionCookie = "sitereports_session"

type contextKey int

const sessionKey contextKey = iota

// statusRecorder remembers the status code written by the wrapped handler,
// and whether anything has been written at all.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Microsecond))
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.logger.Error("panic serving request", "path", r.URL.Path, "panic", v, "written", rec.wroteHeader)
				// A started response cannot be replaced by the error page.
				if !rec.wroteHeader {
					s.renderError(w, r, http.StatusInternalServerError)
				}
			}
		}()
		next.ServeHTTP(rec, r)
	})
}

// requireSession resolves the session cookie and stores the session in the
// request context. Without a live session the browser is sent to /login.
// It does nothing when authentication is disabled.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.opts.AuthEnabled {
			next.ServeHTTP(w, r)
			return
		}

		var token string
		if c, err := r.Cookie(sessionCookie); err == nil {
			token = c.Value
		}

		session, err := s.service.ResolveSession(r.Context(), token)
		if errors.Is(err, sitereports.ErrUnauthenticated) {
			if token != "" {
				s.clearSessionCookie(w)
			}
			s.setFlash(w, flashWarning, "Please log in first.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	})
}

// currentSession returns the session stored by requireSession, if any.
func currentSession(r *http.Request) *model.Session {
	session, _ := r.Context().Value(sessionKey).(*model.Session)
	return session
}

func (s *Server) setSessionCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
