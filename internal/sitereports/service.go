package sitereports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sitereports/internal/model"
)

// DefaultSessionTTL is how long a login stays valid unless configured otherwise.
const DefaultSessionTTL = 12 * time.Hour

// Service is the orchestration layer behind the web handlers and the CLI.
// It validates input, applies it to the Database and computes the dashboard.
type Service struct {
	database     Database
	logger       Logger
	clock        Clock
	idgen        IDGenerator
	sessionTTL   time.Duration
	passwordCost int
}

// NewService creates a new Service with the provided dependencies.
func NewService(database Database, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		database:     database,
		logger:       logger,
		clock:        clock,
		idgen:        idgen,
		sessionTTL:   DefaultSessionTTL,
		passwordCost: bcrypt.DefaultCost,
	}
}

// SetSessionTTL overrides the lifetime of new sessions. Non-positive values are ignored.
func (s *Service) SetSessionTTL(ttl time.Duration) {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
}

// SetPasswordCost overrides the bcrypt cost used for new passwords.
func (s *Service) SetPasswordCost(cost int) {
	s.passwordCost = cost
}

// CreateReport validates and stores a new report and returns its ID.
// A report missing a required field is never stored; a *ValidationError is returned instead.
func (s *Service) CreateReport(ctx context.Context, report *model.Report) (int64, error) {
	normalizeReport(report)
	if err := validateReport(report).OrNil(); err != nil {
		return 0, err
	}

	now := s.clock.Now()
	report.CreatedAt = now
	report.UpdatedAt = now

	id, err := s.database.CreateReport(ctx, report)
	if err != nil {
		return 0, fmt.Errorf("creating report: %w", err)
	}
	report.ID = id

	s.logger.Info("report created", "id", id, "site", report.SiteName)
	return id, nil
}

// GetReport returns a single report with its issues and devices.
func (s *Service) GetReport(ctx context.Context, id int64) (*model.Report, error) {
	report, err := s.database.GetReport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting report %d: %w", id, err)
	}
	return report, nil
}

// UpdateReport applies the fields present in patch to the report.
// Fields the patch leaves nil keep their stored values.
func (s *Service) UpdateReport(ctx context.Context, id int64, patch *model.ReportPatch) error {
	normalizePatch(patch)
	if err := validatePatch(patch).OrNil(); err != nil {
		return err
	}

	if err := s.database.UpdateReport(ctx, id, patch, s.clock.Now()); err != nil {
		return fmt.Errorf("updating report %d: %w", id, err)
	}

	s.logger.Info("report updated", "id", id)
	return nil
}

// DeleteReport removes a report with its issues and devices.
func (s *Service) DeleteReport(ctx context.Context, id int64) error {
	if err := s.database.DeleteReport(ctx, id); err != nil {
		return fmt.Errorf("deleting report %d: %w", id, err)
	}

	s.logger.Info("report deleted", "id", id)
	return nil
}

// Ping checks that the database answers.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.database.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}
