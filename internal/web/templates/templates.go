// Package templates holds the embedded HTML pages and static assets of the
// web interface. Rendering is pure: a page name and a data value in, HTML out.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"slices"
	"strings"
	"time"

	"sitereports/internal/model"
)

//go:embed *.html
var pageFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names accepted by Render.
const (
	Index        = "index"
	NewReport    = "new_report"
	ReportDetail = "report_detail"
	EditReport   = "edit_report"
	Login        = "login"
	Register     = "register"
	Error        = "error"
)

var pages = []string{Index, NewReport, ReportDetail, EditReport, Login, Register, Error}

// Renderer executes the page templates. Each page is parsed together with
// base.html and report_form.html so they share the layout and form partials.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every embedded page.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New("base.html").Funcs(funcs).ParseFS(pageFS, "base.html", "report_form.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the named page to w. The page is executed into a buffer first,
// so nothing reaches w when execution fails.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static returns the stylesheet and other assets, rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embedded path is fixed at compile time
	}
	return sub
}

var funcs = template.FuncMap{
	"dash":         dash,
	"statusClass":  statusClass,
	"datetime":     datetime,
	"has":          func(list []string, v string) bool { return slices.Contains(list, v) },
	"statuses":     func() []string { return model.OverallStatuses },
	"reportTypes":  func() []string { return ReportTypes },
	"priorities":   func() []string { return Priorities },
	"issueStates":  func() []string { return IssueStatuses },
	"deviceStates": func() []string { return DeviceStatuses },
	"blankIssues":  func(n int) []model.Issue { return make([]model.Issue, n) },
	"blankDevices": func(n int) []model.Device { return make([]model.Device, n) },
}

// Choices offered by the report form.
var (
	ReportTypes    = []string{"Weekly", "Monthly", "Quarterly", "Incident", "Site Visit"}
	Priorities     = []string{"Low", "Medium", "High", "Critical"}
	IssueStatuses  = []string{"Open", "In Progress", "Pending", model.IssueResolved}
	DeviceStatuses = []string{"Working", model.DeviceBroken, "Under Repair"}
)

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// statusClass maps an overall status to its badge CSS class.
func statusClass(status string) string {
	switch status {
	case model.StatusGood:
		return "badge-good"
	case model.StatusStable:
		return "badge-stable"
	case model.StatusNeedsAttention:
		return "badge-attention"
	case model.StatusCritical:
		return "badge-critical"
	default:
		return "badge-none"
	}
}

func datetime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
