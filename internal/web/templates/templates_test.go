package templates

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"
	"time"

	"sitereports/internal/model"
)

type testLayout struct {
	Title       string
	Username    string
	AuthEnabled bool
	Flash       *struct{ Kind, Message string }
}

type testFormPage struct {
	testLayout
	Action string
	Report *model.Report
	Errors map[string]string
	Counts map[string]string
}

type testDetailPage struct {
	testLayout
	Report *model.Report
}

func sampleReport() *model.Report {
	return &model.Report{
		ID:               7,
		SiteName:         "Site A inspection",
		ReportType:       "Inspection",
		ExecutiveSummary: "All clear",
		OverallStatus:    model.StatusStable,
		CamerasLive:      4,
		CreatedAt:        time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		Issues:           []model.Issue{{Title: "Door <sensor>", Priority: "High"}},
		Devices:          []model.Device{{Name: "NVR", Status: model.DeviceBroken}},
	}
}

func TestNew_ParsesAllPages(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, name := range pages {
		if _, ok := r.pages[name]; !ok {
			t.Errorf("page %q not parsed", name)
		}
	}
}

func TestRender_ReportDetail(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var buf bytes.Buffer
	data := testDetailPage{testLayout: testLayout{Title: "Report"}, Report: sampleReport()}
	if err := r.Render(&buf, ReportDetail, data); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	body := buf.String()
	for _, want := range []string{
		"Site A inspection",
		"All clear",
		"badge-stable",
		"4 live / 0 down",
		"Door &lt;sensor&gt;",
		"/reports/7/edit",
		"2024-03-04 09:00 UTC",
		`href="/static/style.css"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
}

func TestRender_ReportForm(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	t.Run("new form shows errors and submitted values", func(t *testing.T) {
		var buf bytes.Buffer
		data := testFormPage{
			Action: "/reports/new",
			Report: &model.Report{Location: "Annex", ReportType: "Weekly"},
			Errors: map[string]string{"site_name": "Site name is required."},
		}
		if err := r.Render(&buf, NewReport, data); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		body := buf.String()
		for _, want := range []string{
			"Site name is required.",
			`value="Annex"`,
			"<option selected>Weekly</option>",
			`name="issue_title[]"`,
			`name="device_name[]"`,
		} {
			if !strings.Contains(body, want) {
				t.Errorf("rendered form missing %q", want)
			}
		}
	})

	t.Run("edit form keeps an unlisted report type", func(t *testing.T) {
		var buf bytes.Buffer
		data := testFormPage{Action: "/reports/7/edit", Report: sampleReport()}
		if err := r.Render(&buf, EditReport, data); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		body := buf.String()
		if !strings.Contains(body, "<option selected>Inspection</option>") {
			t.Error("edit form lost the stored report type")
		}
		if !strings.Contains(body, "Edit report #7") {
			t.Error("edit form missing heading")
		}
	})
}

func TestRender_Errors(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	t.Run("unknown page", func(t *testing.T) {
		var buf bytes.Buffer
		if err := r.Render(&buf, "missing", nil); err == nil {
			t.Fatal("Render() expected error for unknown page")
		}
	})

	t.Run("failed execution writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		// The detail page needs a Report field.
		if err := r.Render(&buf, ReportDetail, testLayout{}); err == nil {
			t.Fatal("Render() expected error for missing field")
		}
		if buf.Len() != 0 {
			t.Errorf("Render() wrote %d bytes on failure, want 0", buf.Len())
		}
	})
}

func TestStatic(t *testing.T) {
	data, err := fs.ReadFile(Static(), "style.css")
	if err != nil {
		t.Fatalf("ReadFile(style.css) error = %v", err)
	}
	if !bytes.Contains(data, []byte(".badge-critical")) {
		t.Error("style.css missing badge styles")
	}
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{model.StatusGood, "badge-good"},
		{model.StatusStable, "badge-stable"},
		{model.StatusNeedsAttention, "badge-attention"},
		{model.StatusCritical, "badge-critical"},
		{"", "badge-none"},
	}
	for _, tt := range tests {
		if got := statusClass(tt.status); got != tt.want {
			t.Errorf("statusClass(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}

	if got := dash("  "); got != "-" {
		t.Errorf("dash(blank) = %q, want %q", got, "-")
	}
	if got := dash("x"); got != "x" {
		t.Errorf("dash(x) = %q, want %q", got, "x")
	}
	if got := datetime(time.Time{}); got != "-" {
		t.Errorf("datetime(zero) = %q, want %q", got, "-")
	}
}
