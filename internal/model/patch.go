package model

// ReportPatch is a partial update of a report. Nil fields are left unchanged.
// Non-nil Issues or Devices replace the report's existing rows.
type ReportPatch struct {
	SiteName    *string
	Location    *string
	ReportType  *string
	PeriodStart *string
	PeriodEnd   *string

	PreparedBy      *string
	PreparedByTitle *string
	Department      *string
	DateSubmitted   *string
	OfficeManager   *string
	DirectorIT      *string

	ExecutiveSummary *string
	OverallStatus    *string

	NetworkStatus    *string
	PowerStatus      *string
	HardwareStatus   *string
	BiomedicalStatus *string
	CamerasLive      *int
	CamerasDown      *int
	BiometricsLive   *int
	BiometricsDown   *int
	SoftwareStatus   *string
	SecurityStatus   *string

	Recommendations  *string
	RisksConstraints *string
	Conclusion       *string

	Issues  *[]Issue
	Devices *[]Device
}

// Empty reports whether the patch sets no field at all.
func (p *ReportPatch) Empty() bool {
	return *p == ReportPatch{}
}

// Apply copies every set field of the patch onto r. ID and CreatedAt are never touched.
func (p *ReportPatch) Apply(r *Report) {
	setString(&r.SiteName, p.SiteName)
	setString(&r.Location, p.Location)
	setString(&r.ReportType, p.ReportType)
	setString(&r.PeriodStart, p.PeriodStart)
	setString(&r.PeriodEnd, p.PeriodEnd)

	setString(&r.PreparedBy, p.PreparedBy)
	setString(&r.PreparedByTitle, p.PreparedByTitle)
	setString(&r.Department, p.Department)
	setString(&r.DateSubmitted, p.DateSubmitted)
	setString(&r.OfficeManager, p.OfficeManager)
	setString(&r.DirectorIT, p.DirectorIT)

	setString(&r.ExecutiveSummary, p.ExecutiveSummary)
	setString(&r.OverallStatus, p.OverallStatus)

	setString(&r.NetworkStatus, p.NetworkStatus)
	setString(&r.PowerStatus, p.PowerStatus)
	setString(&r.HardwareStatus, p.HardwareStatus)
	setString(&r.BiomedicalStatus, p.BiomedicalStatus)
	setInt(&r.CamerasLive, p.CamerasLive)
	setInt(&r.CamerasDown, p.CamerasDown)
	setInt(&r.BiometricsLive, p.BiometricsLive)
	setInt(&r.BiometricsDown, p.BiometricsDown)
	setString(&r.SoftwareStatus, p.SoftwareStatus)
	setString(&r.SecurityStatus, p.SecurityStatus)

	setString(&r.Recommendations, p.Recommendations)
	setString(&r.RisksConstraints, p.RisksConstraints)
	setString(&r.Conclusion, p.Conclusion)

	if p.Issues != nil {
		r.Issues = *p.Issues
	}
	if p.Devices != nil {
		r.Devices = *p.Devices
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
