package sitereports

import (
	"slices"
	"strings"

	"sitereports/internal/model"
)

// normalizeReport trims every text field and drops issue and device rows
// that were submitted without a title or name.
func normalizeReport(r *model.Report) {
	for _, f := range reportText(r) {
		*f = strings.TrimSpace(*f)
	}
	r.Issues = normalizeIssues(r.Issues)
	r.Devices = normalizeDevices(r.Devices)
}

func normalizePatch(p *model.ReportPatch) {
	for _, f := range patchText(p) {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	if p.Issues != nil {
		issues := normalizeIssues(*p.Issues)
		p.Issues = &issues
	}
	if p.Devices != nil {
		devices := normalizeDevices(*p.Devices)
		p.Devices = &devices
	}
}

func normalizeIssues(in []model.Issue) []model.Issue {
	out := make([]model.Issue, 0, len(in))
	for _, is := range in {
		for _, f := range []*string{
			&is.Title, &is.Area, &is.Impact, &is.Status, &is.Owner, &is.ActionTaken,
			&is.RootCause, &is.PendingReason, &is.Priority, &is.TargetDate, &is.Responsible,
		} {
			*f = strings.TrimSpace(*f)
		}
		if is.Title == "" {
			continue
		}
		out = append(out, is)
	}
	return out
}

func normalizeDevices(in []model.Device) []model.Device {
	out := make([]model.Device, 0, len(in))
	for _, d := range in {
		for _, f := range []*string{&d.Name, &d.Hostname, &d.SerialNumber, &d.Status} {
			*f = strings.TrimSpace(*f)
		}
		if d.Name == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ValidateReport normalizes r and returns its field errors without storing
// anything. Callers holding their own input errors merge them with the result.
func ValidateReport(r *model.Report) *ValidationError {
	normalizeReport(r)
	return validateReport(r)
}

// ValidatePatch is ValidateReport for a partial update.
func ValidatePatch(p *model.ReportPatch) *ValidationError {
	normalizePatch(p)
	return validatePatch(p)
}

// validateReport checks a complete report before it is created.
func validateReport(r *model.Report) *ValidationError {
	verr := NewValidationError()
	if r.SiteName == "" {
		verr.Add("site_name", "Site name is required.")
	}
	if r.ReportType == "" {
		verr.Add("report_type", "Report type is required.")
	}
	checkStatus(verr, r.OverallStatus)
	checkCount(verr, "cameras_live", r.CamerasLive)
	checkCount(verr, "cameras_down", r.CamerasDown)
	checkCount(verr, "biometrics_live", r.BiometricsLive)
	checkCount(verr, "biometrics_down", r.BiometricsDown)
	return verr
}

// validatePatch checks only the fields present in the patch.
func validatePatch(p *model.ReportPatch) *ValidationError {
	verr := NewValidationError()
	if p.SiteName != nil && *p.SiteName == "" {
		verr.Add("site_name", "Site name is required.")
	}
	if p.ReportType != nil && *p.ReportType == "" {
		verr.Add("report_type", "Report type is required.")
	}
	if p.OverallStatus != nil {
		checkStatus(verr, *p.OverallStatus)
	}
	for field, v := range map[string]*int{
		"cameras_live":    p.CamerasLive,
		"cameras_down":    p.CamerasDown,
		"biometrics_live": p.BiometricsLive,
		"biometrics_down": p.BiometricsDown,
	} {
		if v != nil {
			checkCount(verr, field, *v)
		}
	}
	return verr
}

func checkStatus(verr *ValidationError, status string) {
	if status != "" && !slices.Contains(model.OverallStatuses, status) {
		verr.Add("overall_status", "Unknown overall status.")
	}
}

func checkCount(verr *ValidationError, field string, v int) {
	if v < 0 {
		verr.Add(field, "Must be zero or more.")
	}
}

func reportText(r *model.Report) []*string {
	return []*string{
		&r.SiteName, &r.Location, &r.ReportType, &r.PeriodStart, &r.PeriodEnd,
		&r.PreparedBy, &r.PreparedByTitle, &r.Department, &r.DateSubmitted, &r.OfficeManager, &r.DirectorIT,
		&r.ExecutiveSummary, &r.OverallStatus,
		&r.NetworkStatus, &r.PowerStatus, &r.HardwareStatus, &r.BiomedicalStatus,
		&r.SoftwareStatus, &r.SecurityStatus,
		&r.Recommendations, &r.RisksConstraints, &r.Conclusion,
	}
}

func patchText(p *model.ReportPatch) []*string {
	return []*string{
		p.SiteName, p.Location, p.ReportType, p.PeriodStart, p.PeriodEnd,
		p.PreparedBy, p.PreparedByTitle, p.Department, p.DateSubmitted, p.OfficeManager, p.DirectorIT,
		p.ExecutiveSummary, p.OverallStatus,
		p.NetworkStatus, p.PowerStatus, p.HardwareStatus, p.BiomedicalStatus,
		p.SoftwareStatus, p.SecurityStatus,
		p.Recommendations, p.RisksConstraints, p.Conclusion,
	}
}
