package sitereports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"sitereports/internal/model"
)

const minPasswordLength = 6

// Register creates a new account. Missing fields, mismatched passwords, short
// passwords and taken usernames are reported as a *ValidationError.
func (s *Service) Register(ctx context.Context, username, password, confirm string) (*model.User, error) {
	username = strings.TrimSpace(username)

	verr := NewValidationError()
	switch {
	case username == "" || password == "":
		verr.Add("username", "Username and password are required.")
	case password != confirm:
		verr.Add("confirm_password", "Passwords do not match.")
	case len(password) < minPasswordLength:
		verr.Add("password", fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.database.CreateUser(ctx, &model.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	})
	if errors.Is(err, ErrUsernameTaken) {
		verr.Add("username", "Username already exists.")
		return nil, verr
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", "username", username)
	return user, nil
}

// EnsureUser provisions an account from the command line. An existing account
// is returned unchanged with created set to false.
func (s *Service) EnsureUser(ctx context.Context, username, password string) (user *model.User, created bool, err error) {
	existing, err := s.database.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("finding user: %w", err)
	}

	user, err = s.Register(ctx, username, password, password)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Login checks the credentials and opens a new session.
func (s *Service) Login(ctx context.Context, username, password string) (*model.Session, error) {
	username = strings.TrimSpace(username)

	user, err := s.database.FindUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn("login failed", "username", username, "reason", "unknown user")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("login failed", "username", username, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	session := &model.Session{
		Token:     s.idgen.New(),
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.database.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.logger.Info("user logged in", "username", user.Username)
	return session, nil
}

// ResolveSession returns the live session for token.
// Unknown and expired tokens yield ErrUnauthenticated; expired ones are removed.
func (s *Service) ResolveSession(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	session, err := s.database.GetSession(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if !s.clock.Now().Before(session.ExpiresAt) {
		if err := s.database.DeleteSession(ctx, token); err != nil {
			s.logger.Warn("removing expired session failed", "error", err)
		}
		return nil, ErrUnauthenticated
	}
	return session, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.database.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes every session that has expired.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.database.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	if n > 0 {
		s.logger.Debug("expired sessions purged", "count", n)
	}
	return n, nil
}

// UserCount returns the number of registered accounts.
func (s *Service) UserCount(ctx context.Context) (int, error) {
	n, err := s.database.CountUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
