package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"sitereports/internal/model"
	"sitereports/internal/sitereports"
)

// reportColumns are the editable columns of the reports table, in the order
// used by reportValues and reportDest.
var reportColumns = []string{
	"site_name", "location", "report_type", "period_start", "period_end",
	"prepared_by", "prepared_by_title", "department", "date_submitted", "office_manager", "director_it",
	"executive_summary", "overall_status",
	"network_status", "power_status", "hardware_status", "biomedical_status",
	"cameras_live", "cameras_down", "biometrics_live", "biometrics_down",
	"software_status", "security_status",
	"recommendations", "risks_constraints", "conclusion",
}

func reportValues(r *model.Report) []any {
	return []any{
		r.SiteName, r.Location, r.ReportType, r.PeriodStart, r.PeriodEnd,
		r.PreparedBy, r.PreparedByTitle, r.Department, r.DateSubmitted, r.OfficeManager, r.DirectorIT,
		r.ExecutiveSummary, r.OverallStatus,
		r.NetworkStatus, r.PowerStatus, r.HardwareStatus, r.BiomedicalStatus,
		r.CamerasLive, r.CamerasDown, r.BiometricsLive, r.BiometricsDown,
		r.SoftwareStatus, r.SecurityStatus,
		r.Recommendations, r.RisksConstraints, r.Conclusion,
	}
}

// reportDest returns scan targets for id, the editable columns, created_at and updated_at.
func reportDest(r *model.Report) []any {
	return []any{
		&r.ID,
		&r.SiteName, &r.Location, &r.ReportType, &r.PeriodStart, &r.PeriodEnd,
		&r.PreparedBy, &r.PreparedByTitle, &r.Department, &r.DateSubmitted, &r.OfficeManager, &r.DirectorIT,
		&r.ExecutiveSummary, &r.OverallStatus,
		&r.NetworkStatus, &r.PowerStatus, &r.HardwareStatus, &r.BiomedicalStatus,
		&r.CamerasLive, &r.CamerasDown, &r.BiometricsLive, &r.BiometricsDown,
		&r.SoftwareStatus, &r.SecurityStatus,
		&r.Recommendations, &r.RisksConstraints, &r.Conclusion,
		&r.CreatedAt, &r.UpdatedAt,
	}
}

// selectReportColumns lists the columns matching reportDest, each prefixed with alias.
func selectReportColumns(alias string) string {
	cols := make([]string, 0, len(reportColumns)+3)
	cols = append(cols, alias+"id")
	for _, c := range reportColumns {
		cols = append(cols, alias+c)
	}
	cols = append(cols, alias+"created_at", alias+"updated_at")
	return strings.Join(cols, ", ")
}

var (
	insertReportSQL = "INSERT INTO reports (" + strings.Join(reportColumns, ", ") + ", created_at, updated_at) VALUES (" +
		placeholders(len(reportColumns)+2) + ")"

	updateReportSQL = "UPDATE reports SET " + strings.Join(reportColumns, " = ?, ") + " = ?, updated_at = ? WHERE id = ?"

	getReportSQL = "SELECT " + selectReportColumns("") + " FROM reports WHERE id = ?"
)

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// Report operations

func (s *SQLiteDatabase) CreateReport(ctx context.Context, report *model.Report) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("create report", err)
	}
	defer tx.Rollback()

	args := append(reportValues(report), report.CreatedAt.UTC(), report.UpdatedAt.UTC())
	res, err := tx.ExecContext(ctx, insertReportSQL, args...)
	if err != nil {
		return 0, storageErr("create report", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("create report", err)
	}

	if err := insertIssues(ctx, tx, id, report.Issues); err != nil {
		return 0, err
	}
	if err := insertDevices(ctx, tx, id, report.Devices); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("create report", err)
	}
	return id, nil
}

func (s *SQLiteDatabase) GetReport(ctx context.Context, id int64) (*model.Report, error) {
	report, err := getReport(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	if report.Issues, err = listIssues(ctx, s.db, id); err != nil {
		return nil, err
	}
	if report.Devices, err = listDevices(ctx, s.db, id); err != nil {
		return nil, err
	}
	return report, nil
}

// reportFilter builds the WHERE clause selecting the reports of alias r that
// match filter, with its arguments. The clause is empty for an empty filter.
func reportFilter(filter model.ListFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.Site != "" {
		where = append(where, `r.site_name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.Site)+"%")
	}
	if filter.Status != "" {
		where = append(where, "r.overall_status = ?")
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		where = append(where, "EXISTS (SELECT 1 FROM issues p WHERE p.report_id = r.id AND p.priority = ?)")
		args = append(args, filter.Priority)
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (s *SQLiteDatabase) ListReports(ctx context.Context, filter model.ListFilter) ([]*model.ReportSummary, error) {
	where, filterArgs := reportFilter(filter)
	args := append([]any{model.IssueResolved}, filterArgs...)

	query := "SELECT " + selectReportColumns("r.") +
		", (SELECT COUNT(*) FROM issues i WHERE i.report_id = r.id AND i.status != ?) FROM reports r" +
		where + " ORDER BY r.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list reports", err)
	}
	defer rows.Close()

	var reports []*model.ReportSummary
	for rows.Next() {
		rs := &model.ReportSummary{}
		dest := append(reportDest(&rs.Report), &rs.OpenIssues)
		if err := rows.Scan(dest...); err != nil {
			return nil, storageErr("list reports", err)
		}
		reports = append(reports, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list reports", err)
	}
	return reports, nil
}

func (s *SQLiteDatabase) UpdateReport(ctx context.Context, id int64, patch *model.ReportPatch, updatedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("update report", err)
	}
	defer tx.Rollback()

	report, err := getReport(ctx, tx, id)
	if err != nil {
		return err
	}
	patch.Apply(report)

	args := append(reportValues(report), updatedAt.UTC(), id)
	if _, err := tx.ExecContext(ctx, updateReportSQL, args...); err != nil {
		return storageErr("update report", err)
	}

	if patch.Issues != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM issues WHERE report_id = ?", id); err != nil {
			return storageErr("update report", err)
		}
		if err := insertIssues(ctx, tx, id, *patch.Issues); err != nil {
			return err
		}
	}
	if patch.Devices != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM devices WHERE report_id = ?", id); err != nil {
			return storageErr("update report", err)
		}
		if err := insertDevices(ctx, tx, id, *patch.Devices); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("update report", err)
	}
	return nil
}

// DeleteReport removes the report. Issues and devices go with it through ON DELETE CASCADE.
func (s *SQLiteDatabase) DeleteReport(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return storageErr("delete report", err)
	}
	return requireAffected(res, "delete report")
}

// DeviceStats counts devices, and broken devices, across the reports matching
// filter. The filter is applied in SQL so the count never depends on how many
// reports match.
func (s *SQLiteDatabase) DeviceStats(ctx context.Context, filter model.ListFilter) (int, int, error) {
	where, filterArgs := reportFilter(filter)
	args := append([]any{model.DeviceBroken}, filterArgs...)

	var total, broken int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN d.status = ? THEN 1 ELSE 0 END), 0) FROM devices d"+
			" WHERE d.report_id IN (SELECT r.id FROM reports r"+where+")", args...).Scan(&total, &broken)
	if err != nil {
		return 0, 0, storageErr("device stats", err)
	}
	return total, broken, nil
}

func getReport(ctx context.Context, q querier, id int64) (*model.Report, error) {
	report := &model.Report{}
	err := q.QueryRowContext(ctx, getReportSQL, id).Scan(reportDest(report)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sitereports.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get report", err)
	}
	return report, nil
}

func listIssues(ctx context.Context, q querier, reportID int64) ([]model.Issue, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, report_id, issue_title, area, impact, status, owner, action_taken,
		        root_cause, pending_reason, priority, target_date, responsible
		 FROM issues WHERE report_id = ? ORDER BY id DESC`, reportID)
	if err != nil {
		return nil, storageErr("list issues", err)
	}
	defer rows.Close()

	var issues []model.Issue
	for rows.Next() {
		var is model.Issue
		if err := rows.Scan(&is.ID, &is.ReportID, &is.Title, &is.Area, &is.Impact, &is.Status, &is.Owner,
			&is.ActionTaken, &is.RootCause, &is.PendingReason, &is.Priority, &is.TargetDate, &is.Responsible); err != nil {
			return nil, storageErr("list issues", err)
		}
		issues = append(issues, is)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list issues", err)
	}
	return issues, nil
}

func listDevices(ctx context.Context, q querier, reportID int64) ([]model.Device, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, report_id, device_name, hostname, serial_number, status
		 FROM devices WHERE report_id = ? ORDER BY id DESC`, reportID)
	if err != nil {
		return nil, storageErr("list devices", err)
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.ID, &d.ReportID, &d.Name, &d.Hostname, &d.SerialNumber, &d.Status); err != nil {
			return nil, storageErr("list devices", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list devices", err)
	}
	return devices, nil
}

func insertIssues(ctx context.Context, q querier, reportID int64, issues []model.Issue) error {
	for _, is := range issues {
		_, err := q.ExecContext(ctx,
			`INSERT INTO issues (report_id, issue_title, area, impact, status, owner, action_taken,
			                     root_cause, pending_reason, priority, target_date, responsible)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			reportID, is.Title, is.Area, is.Impact, is.Status, is.Owner, is.ActionTaken,
			is.RootCause, is.PendingReason, is.Priority, is.TargetDate, is.Responsible)
		if err != nil {
			return storageErr("insert issue", err)
		}
	}
	return nil
}

func insertDevices(ctx context.Context, q querier, reportID int64, devices []model.Device) error {
	for _, d := range devices {
		_, err := q.ExecContext(ctx,
			`INSERT INTO devices (report_id, device_name, hostname, serial_number, status) VALUES (?, ?, ?, ?, ?)`,
			reportID, d.Name, d.Hostname, d.SerialNumber, d.Status)
		if err != nil {
			return storageErr("insert device", err)
		}
	}
	return nil
}

// escapeLike escapes the LIKE wildcards in s so it matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
