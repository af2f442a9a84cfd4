package web

import (
	"net/http"
	"net/url"
)

const flashCookie = "sitereports_flash"

// Flash kinds double as CSS class suffixes.
const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// setFlash stores a message for the next page the browser renders.
func (s *Server) setFlash(w http.ResponseWriter, kind, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.Values{"k": {kind}, "m": {msg}}.Encode(),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending message, if any, and expires its cookie.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	v, err := url.ParseQuery(c.Value)
	if err != nil || v.Get("m") == "" {
		return nil
	}
	kind := v.Get("k")
	switch kind {
	case flashSuccess, flashInfo, flashWarning, flashDanger:
	default:
		kind = flashInfo
	}
	return &Flash{Kind: kind, Message: v.Get("m")}
}
