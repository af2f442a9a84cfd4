package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"sitereports/internal/web/templates"
)

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverPanics, s.logRequests)
	r.NotFoundHandler = s.logRequests(http.HandlerFunc(s.handleNotFound))
	r.MethodNotAllowedHandler = s.logRequests(http.HandlerFunc(s.handleMethodNotAllowed))

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServerFS(templates.Static())))
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if s.opts.AuthEnabled {
		r.HandleFunc("/login", s.handleLoginForm).Methods(http.MethodGet)
		r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
		r.HandleFunc("/register", s.handleRegisterForm).Methods(http.MethodGet)
		r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
		r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet, http.MethodPost)
	}

	app := r.NewRoute().Subrouter()
	app.Use(s.requireSession)

	app.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	app.HandleFunc("/reports/new", s.handleNewReportForm).Methods(http.MethodGet)
	app.HandleFunc("/reports/new", s.handleCreateReport).Methods(http.MethodPost)
	app.HandleFunc("/reports/{id:[0-9]+}", s.handleReportDetail).Methods(http.MethodGet)
	app.HandleFunc("/reports/{id:[0-9]+}/edit", s.handleEditReportForm).Methods(http.MethodGet)
	app.HandleFunc("/reports/{id:[0-9]+}/edit", s.handleUpdateReport).Methods(http.MethodPost)
	app.HandleFunc("/reports/{id:[0-9]+}/delete", s.handleDeleteReport).Methods(http.MethodPost)
	app.HandleFunc("/reports/{id:[0-9]+}/download", s.handleDownloadReport).Methods(http.MethodGet)

	return r
}
