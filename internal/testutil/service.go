package testutil

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"sitereports/internal/database"
	"sitereports/internal/model"
	"sitereports/internal/sitereports"
)

// ServiceFixture bundles a Service with the stubs it was built from.
type ServiceFixture struct {
	Service  *sitereports.Service
	Database *database.SQLiteDatabase
	Clock    *StubClock
	IDs      *StubIDGenerator
}

// NewTestService builds a Service over a fresh in-memory database with a fixed
// clock and the cheapest bcrypt cost.
func NewTestService(t *testing.T) *ServiceFixture {
	t.Helper()

	f := &ServiceFixture{
		Database: NewTestDatabase(t),
		Clock:    FixedClock(),
		IDs:      NewStubIDGenerator(),
	}
	f.Service = sitereports.NewService(f.Database, sitereports.NewNopLogger(), f.Clock, f.IDs)
	f.Service.SetPasswordCost(bcrypt.MinCost)
	return f
}

// SampleReport returns a valid report with one issue and one device.
func SampleReport(site string) *model.Report {
	return &model.Report{
		SiteName:         site,
		Location:         "Building 2",
		ReportType:       "Weekly",
		PeriodStart:      "2024-02-26",
		PeriodEnd:        "2024-03-01",
		PreparedBy:       "J. Doe",
		ExecutiveSummary: "All systems nominal.",
		OverallStatus:    model.StatusGood,
		CamerasLive:      12,
		CamerasDown:      1,
		Issues: []model.Issue{
			{Title: "Camera 7 offline", Status: "Open", Priority: "High"},
		},
		Devices: []model.Device{
			{Name: "Core switch", Hostname: "sw-core-01", Status: "Working"},
		},
	}
}
