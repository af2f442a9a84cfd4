package model

import "time"

// Overall status values accepted for a report.
const (
	StatusGood           = "Good"
	StatusStable         = "Stable"
	StatusNeedsAttention = "Needs Attention"
	StatusCritical       = "Critical"
)

// OverallStatuses lists the accepted overall status values in display order.
var OverallStatuses = []string{StatusGood, StatusStable, StatusNeedsAttention, StatusCritical}

// IssueResolved is the issue status that does not count as open.
const IssueResolved = "Resolved"

// DeviceBroken is the device status counted as broken on the dashboard.
const DeviceBroken = "Broken"

// Report is a site report filed for one site and period.
type Report struct {
	ID          int64 // Autoincrement, immutable
	SiteName    string
	Location    string
	ReportType  string
	PeriodStart string
	PeriodEnd   string

	PreparedBy      string
	PreparedByTitle string
	Department      string
	DateSubmitted   string
	OfficeManager   string
	DirectorIT      string

	ExecutiveSummary string
	OverallStatus    string

	NetworkStatus    string
	PowerStatus      string
	HardwareStatus   string
	BiomedicalStatus string
	CamerasLive      int
	CamerasDown      int
	BiometricsLive   int
	BiometricsDown   int
	SoftwareStatus   string
	SecurityStatus   string

	Recommendations  string
	RisksConstraints string
	Conclusion       string

	CreatedAt time.Time
	UpdatedAt time.Time

	Issues  []Issue
	Devices []Device
}

// ReportSummary is a report row on the dashboard together with its open issue count.
type ReportSummary struct {
	Report
	OpenIssues int
}

// Issue is a problem logged against a report.
type Issue struct {
	ID            int64
	ReportID      int64
	Title         string // Required
	Area          string
	Impact        string
	Status        string
	Owner         string
	ActionTaken   string
	RootCause     string
	PendingReason string
	Priority      string
	TargetDate    string
	Responsible   string
}

// Device is a piece of equipment inventoried in a report.
type Device struct {
	ID           int64
	ReportID     int64
	Name         string // Required
	Hostname     string
	SerialNumber string
	Status       string
}

// ListFilter narrows the dashboard listing. Empty fields are ignored.
type ListFilter struct {
	Site     string // Substring match on site name
	Status   string // Exact overall status
	Priority string // Report has at least one issue with this priority
}

// User is an account allowed to use the web interface.
type User struct {
	ID           int64
	Username     string
	PasswordHash string // bcrypt
	CreatedAt    time.Time
}

// Session is a logged-in browser session.
type Session struct {
	Token     string // UUID
	UserID    int64
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// BackupOperation records one database backup run.
type BackupOperation struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt *time.Time // nil while running
	Status     string     // "running", "success" or "error"
	Vault      string
	ObjectKey  string
	Size       int64
}
