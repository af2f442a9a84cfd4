package web

import (
	"bytes"
	"net/http"

	"sitereports/internal/model"
	"sitereports/internal/sitereports"
	"sitereports/internal/web/templates"
)

// layout is the data every page shares with base.html.
type layout struct {
	Title       string
	Username    string
	AuthEnabled bool
	Flash       *Flash
}

type indexPage struct {
	layout
	Dashboard *sitereports.Dashboard
}

type reportFormPage struct {
	layout
	Action string
	Report *model.Report
	Errors map[string]string
	// Counts holds counters as submitted, so a rejected form shows what was typed.
	Counts map[string]string
}

type reportPage struct {
	layout
	Report *model.Report
}

type authPage struct {
	layout
	Submitted string
	Errors    map[string]string
}

type errorPage struct {
	layout
	Status  int
	Heading string
	Message string
}

// newLayout collects the pending flash message and the logged in user.
func (s *Server) newLayout(w http.ResponseWriter, r *http.Request, title string) layout {
	l := layout{
		Title:       title,
		AuthEnabled: s.opts.AuthEnabled,
		Flash:       s.popFlash(w, r),
	}
	if session := currentSession(r); session != nil {
		l.Username = session.Username
	}
	return l
}

// render writes the page with the given status. A template failure becomes a
// plain 500 since the error page itself may be what failed.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, name, data); err != nil {
		s.logger.Error("rendering page failed", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("writing response failed", "page", name, "error", err)
	}
}

var errorMessages = map[int][2]string{
	http.StatusBadRequest:          {"Bad Request", "The submitted form could not be read."},
	http.StatusNotFound:            {"Not Found", "The page or report you asked for does not exist."},
	http.StatusMethodNotAllowed:    {"Method Not Allowed", "This page does not accept that kind of request."},
	http.StatusInternalServerError: {"Server Error", "Something went wrong while handling your request. Please try again later."},
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int) {
	msg, ok := errorMessages[status]
	if !ok {
		msg = [2]string{http.StatusText(status), ""}
	}
	s.render(w, status, templates.Error, errorPage{
		layout:  s.newLayout(w, r, msg[0]),
		Status:  status,
		Heading: msg[0],
		Message: msg[1],
	})
}

// serverError logs err and answers with the generic error page. The error
// text never reaches the browser.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	s.renderError(w, r, http.StatusInternalServerError)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusMethodNotAllowed)
}
