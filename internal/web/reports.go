package web

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"sitereports/internal/model"
	"sitereports/internal/sitereports"
	"sitereports/internal/web/templates"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ListFilter{
		Site:     strings.TrimSpace(q.Get("site")),
		Status:   strings.TrimSpace(q.Get("status")),
		Priority: strings.TrimSpace(q.Get("priority")),
	}

	dash, err := s.service.ListReports(r.Context(), filter)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, http.StatusOK, templates.Index, indexPage{
		layout:    s.newLayout(w, r, "Dashboard"),
		Dashboard: dash,
	})
}

func (s *Server) handleNewReportForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, templates.NewReport, reportFormPage{
		layout: s.newLayout(w, r, "New report"),
		Action: "/reports/new",
		Report: &model.Report{},
	})
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}

	report, verr := parseReportForm(r.PostForm)
	if verr.OrNil() != nil {
		verr.Merge(sitereports.ValidateReport(report))
		s.renderNewForm(w, r, report, verr)
		return
	}

	id, err := s.service.CreateReport(r.Context(), report)
	if verr, ok := sitereports.IsValidation(err); ok {
		s.renderNewForm(w, r, report, verr)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.setFlash(w, flashSuccess, "Report saved successfully!")
	http.Redirect(w, r, reportPath(id), http.StatusSeeOther)
}

func (s *Server) renderNewForm(w http.ResponseWriter, r *http.Request, report *model.Report, verr *sitereports.ValidationError) {
	s.render(w, http.StatusUnprocessableEntity, templates.NewReport, reportFormPage{
		layout: s.newLayout(w, r, "New report"),
		Action: "/reports/new",
		Report: report,
		Errors: verr.Fields,
		Counts: rawCounts(r.PostForm),
	})
}

func (s *Server) handleReportDetail(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	s.render(w, http.StatusOK, templates.ReportDetail, reportPage{
		layout: s.newLayout(w, r, report.SiteName),
		Report: report,
	})
}

func (s *Server) handleEditReportForm(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	s.render(w, http.StatusOK, templates.EditReport, reportFormPage{
		layout: s.newLayout(w, r, "Edit "+report.SiteName),
		Action: reportPath(report.ID) + "/edit",
		Report: report,
	})
}

func (s *Server) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}

	patch, verr := parseReportPatch(r.PostForm)
	if verr.OrNil() != nil {
		verr.Merge(sitereports.ValidatePatch(patch))
		s.renderEditForm(w, r, id, patch, verr)
		return
	}

	err := s.service.UpdateReport(r.Context(), id, patch)
	if verr, ok := sitereports.IsValidation(err); ok {
		s.renderEditForm(w, r, id, patch, verr)
		return
	}
	switch {
	case errors.Is(err, sitereports.ErrNotFound):
		s.renderError(w, r, http.StatusNotFound)
		return
	case err != nil:
		s.serverError(w, r, err)
		return
	}

	s.setFlash(w, flashSuccess, "Report updated successfully!")
	http.Redirect(w, r, reportPath(id), http.StatusSeeOther)
}

// renderEditForm shows the stored report overlaid with the rejected submission.
func (s *Server) renderEditForm(w http.ResponseWriter, r *http.Request, id int64, patch *model.ReportPatch, verr *sitereports.ValidationError) {
	report, err := s.service.GetReport(r.Context(), id)
	if errors.Is(err, sitereports.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	patch.Apply(report)

	s.render(w, http.StatusUnprocessableEntity, templates.EditReport, reportFormPage{
		layout: s.newLayout(w, r, "Edit "+report.SiteName),
		Action: reportPath(id) + "/edit",
		Report: report,
		Errors: verr.Fields,
		Counts: rawCounts(r.PostForm),
	})
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound)
		return
	}

	err := s.service.DeleteReport(r.Context(), id)
	if errors.Is(err, sitereports.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.setFlash(w, flashInfo, "Report deleted.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := writeReportPDF(&buf, report); err != nil {
		s.serverError(w, r, fmt.Errorf("building pdf for report %d: %w", report.ID, err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": pdfFileName(report),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("writing pdf failed", "id", report.ID, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.service.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "unavailable")
		return
	}
	fmt.Fprintln(w, "ok")
}

// loadReport fetches the report named in the URL, answering 404 or 500
// itself when it cannot.
func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (*model.Report, bool) {
	id, ok := reportID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound)
		return nil, false
	}

	report, err := s.service.GetReport(r.Context(), id)
	if errors.Is(err, sitereports.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.serverError(w, r, err)
		return nil, false
	}
	return report, true
}

// reportID parses the {id} route variable. Values that are not positive
// integers do not name a report.
func reportID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func reportPath(id int64) string {
	return "/reports/" + strconv.FormatInt(id, 10)
}
