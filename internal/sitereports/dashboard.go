package sitereports

import (
	"context"
	"fmt"

	"sitereports/internal/model"
)

// StatusCount is the number of listed reports with one overall status.
type StatusCount struct {
	Status string
	Count  int
}

// Dashboard is the filtered report listing with its aggregate figures.
type Dashboard struct {
	Filter          model.ListFilter
	Reports         []*model.ReportSummary
	TotalReports    int
	TotalOpenIssues int
	StatusCounts    []StatusCount
	DeviceTotal     int
	DeviceBroken    int
}

// ListReports returns the reports matching filter and the figures computed over them.
func (s *Service) ListReports(ctx context.Context, filter model.ListFilter) (*Dashboard, error) {
	reports, err := s.database.ListReports(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	d := &Dashboard{
		Filter:       filter,
		Reports:      reports,
		TotalReports: len(reports),
	}

	counts := make(map[string]int, len(model.OverallStatuses))
	for _, r := range reports {
		d.TotalOpenIssues += r.OpenIssues
		counts[r.OverallStatus]++
	}
	for _, st := range model.OverallStatuses {
		d.StatusCounts = append(d.StatusCounts, StatusCount{Status: st, Count: counts[st]})
	}

	if len(reports) > 0 {
		d.DeviceTotal, d.DeviceBroken, err = s.database.DeviceStats(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("counting devices: %w", err)
		}
	}

	return d, nil
}
