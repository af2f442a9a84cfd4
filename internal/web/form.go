package web

import (
	"net/url"
	"strconv"
	"strings"

	"sitereports/internal/model"
	"sitereports/internal/sitereports"
)

// reportField binds a form field name to the matching Report and ReportPatch fields.
type reportField struct {
	name  string
	value func(*model.Report) *string
	patch func(*model.ReportPatch) **string
}

var textFields = []reportField{
	{"site_name", func(r *model.Report) *string { return &r.SiteName }, func(p *model.ReportPatch) **string { return &p.SiteName }},
	{"location", func(r *model.Report) *string { return &r.Location }, func(p *model.ReportPatch) **string { return &p.Location }},
	{"report_type", func(r *model.Report) *string { return &r.ReportType }, func(p *model.ReportPatch) **string { return &p.ReportType }},
	{"period_start", func(r *model.Report) *string { return &r.PeriodStart }, func(p *model.ReportPatch) **string { return &p.PeriodStart }},
	{"period_end", func(r *model.Report) *string { return &r.PeriodEnd }, func(p *model.ReportPatch) **string { return &p.PeriodEnd }},
	{"prepared_by", func(r *model.Report) *string { return &r.PreparedBy }, func(p *model.ReportPatch) **string { return &p.PreparedBy }},
	{"prepared_by_title", func(r *model.Report) *string { return &r.PreparedByTitle }, func(p *model.ReportPatch) **string { return &p.PreparedByTitle }},
	{"department", func(r *model.Report) *string { return &r.Department }, func(p *model.ReportPatch) **string { return &p.Department }},
	{"date_submitted", func(r *model.Report) *string { return &r.DateSubmitted }, func(p *model.ReportPatch) **string { return &p.DateSubmitted }},
	{"office_manager", func(r *model.Report) *string { return &r.OfficeManager }, func(p *model.ReportPatch) **string { return &p.OfficeManager }},
	{"director_it", func(r *model.Report) *string { return &r.DirectorIT }, func(p *model.ReportPatch) **string { return &p.DirectorIT }},
	{"executive_summary", func(r *model.Report) *string { return &r.ExecutiveSummary }, func(p *model.ReportPatch) **string { return &p.ExecutiveSummary }},
	{"overall_status", func(r *model.Report) *string { return &r.OverallStatus }, func(p *model.ReportPatch) **string { return &p.OverallStatus }},
	{"network_status", func(r *model.Report) *string { return &r.NetworkStatus }, func(p *model.ReportPatch) **string { return &p.NetworkStatus }},
	{"power_status", func(r *model.Report) *string { return &r.PowerStatus }, func(p *model.ReportPatch) **string { return &p.PowerStatus }},
	{"hardware_status", func(r *model.Report) *string { return &r.HardwareStatus }, func(p *model.ReportPatch) **string { return &p.HardwareStatus }},
	{"biomedical_status", func(r *model.Report) *string { return &r.BiomedicalStatus }, func(p *model.ReportPatch) **string { return &p.BiomedicalStatus }},
	{"software_status", func(r *model.Report) *string { return &r.SoftwareStatus }, func(p *model.ReportPatch) **string { return &p.SoftwareStatus }},
	{"security_status", func(r *model.Report) *string { return &r.SecurityStatus }, func(p *model.ReportPatch) **string { return &p.SecurityStatus }},
	{"recommendations", func(r *model.Report) *string { return &r.Recommendations }, func(p *model.ReportPatch) **string { return &p.Recommendations }},
	{"risks_constraints", func(r *model.Report) *string { return &r.RisksConstraints }, func(p *model.ReportPatch) **string { return &p.RisksConstraints }},
	{"conclusion", func(r *model.Report) *string { return &r.Conclusion }, func(p *model.ReportPatch) **string { return &p.Conclusion }},
}

type countField struct {
	name  string
	value func(*model.Report) *int
	patch func(*model.ReportPatch) **int
}

var countFields = []countField{
	{"cameras_live", func(r *model.Report) *int { return &r.CamerasLive }, func(p *model.ReportPatch) **int { return &p.CamerasLive }},
	{"cameras_down", func(r *model.Report) *int { return &r.CamerasDown }, func(p *model.ReportPatch) **int { return &p.CamerasDown }},
	{"biometrics_live", func(r *model.Report) *int { return &r.BiometricsLive }, func(p *model.ReportPatch) **int { return &p.BiometricsLive }},
	{"biometrics_down", func(r *model.Report) *int { return &r.BiometricsDown }, func(p *model.ReportPatch) **int { return &p.BiometricsDown }},
}

// parseReportForm builds a new report from a submitted form. Counters that are
// not whole numbers are reported in the returned ValidationError; blank
// counters are zero.
func parseReportForm(form url.Values) (*model.Report, *sitereports.ValidationError) {
	report := &model.Report{}
	verr := sitereports.NewValidationError()

	for _, f := range textFields {
		*f.value(report) = form.Get(f.name)
	}
	for _, f := range countFields {
		n, ok := parseCount(form.Get(f.name))
		if !ok {
			verr.Add(f.name, "Must be a whole number.")
		}
		*f.value(report) = n
	}
	report.Issues = parseIssues(form)
	report.Devices = parseDevices(form)
	return report, verr
}

// parseReportPatch builds a patch holding only the fields present in the form.
// Issue and device rows replace the stored ones when the form carries them.
func parseReportPatch(form url.Values) (*model.ReportPatch, *sitereports.ValidationError) {
	patch := &model.ReportPatch{}
	verr := sitereports.NewValidationError()

	for _, f := range textFields {
		if _, ok := form[f.name]; ok {
			v := form.Get(f.name)
			*f.patch(patch) = &v
		}
	}
	for _, f := range countFields {
		if _, ok := form[f.name]; !ok {
			continue
		}
		n, ok := parseCount(form.Get(f.name))
		if !ok {
			verr.Add(f.name, "Must be a whole number.")
			continue
		}
		*f.patch(patch) = &n
	}
	if form.Has("issues_submitted") || form.Has("issue_title[]") {
		issues := parseIssues(form)
		patch.Issues = &issues
	}
	if form.Has("devices_submitted") || form.Has("device_name[]") {
		devices := parseDevices(form)
		patch.Devices = &devices
	}
	return patch, verr
}

// parseCount accepts a blank value as zero.
func parseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// rawCounts returns the submitted text of the counter fields present in form.
func rawCounts(form url.Values) map[string]string {
	raw := make(map[string]string)
	for _, f := range countFields {
		if _, ok := form[f.name]; ok {
			raw[f.name] = form.Get(f.name)
		}
	}
	return raw
}

// parseIssues zips the parallel issue columns into rows. Missing trailing
// cells are blank.
func parseIssues(form url.Values) []model.Issue {
	titles := form["issue_title[]"]
	issues := make([]model.Issue, 0, len(titles))
	for i, title := range titles {
		issues = append(issues, model.Issue{
			Title:         title,
			Area:          cell(form, "area[]", i),
			Impact:        cell(form, "impact[]", i),
			Status:        cell(form, "issue_status[]", i),
			Owner:         cell(form, "owner[]", i),
			ActionTaken:   cell(form, "action_taken[]", i),
			RootCause:     cell(form, "root_cause[]", i),
			PendingReason: cell(form, "pending_reason[]", i),
			Priority:      cell(form, "priority[]", i),
			TargetDate:    cell(form, "target_date[]", i),
			Responsible:   cell(form, "responsible[]", i),
		})
	}
	return issues
}

func parseDevices(form url.Values) []model.Device {
	names := form["device_name[]"]
	devices := make([]model.Device, 0, len(names))
	for i, name := range names {
		devices = append(devices, model.Device{
			Name:         name,
			Hostname:     cell(form, "hostname[]", i),
			SerialNumber: cell(form, "serial_number[]", i),
			Status:       cell(form, "device_status[]", i),
		})
	}
	return devices
}

func cell(form url.Values, key string, i int) string {
	if col := form[key]; i < len(col) {
		return col[i]
	}
	return ""
}
