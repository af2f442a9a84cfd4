package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sitereports/internal/model"
	"sitereports/internal/sitereports"
)

// User operations

func (s *SQLiteDatabase) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password, created_at) VALUES (?, ?, ?)",
		user.Username, user.PasswordHash, user.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return nil, sitereports.ErrUsernameTaken
	}
	if err != nil {
		return nil, storageErr("create user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr("create user", err)
	}

	created := *user
	created.ID = id
	return &created, nil
}

func (s *SQLiteDatabase) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password, created_at FROM users WHERE username = ?", username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sitereports.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("find user", err)
	}
	return user, nil
}

func (s *SQLiteDatabase) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, storageErr("count users", err)
	}
	return n, nil
}

// Session operations
//
// expires_at is stored as Unix seconds so expiry can be compared in SQL.

func (s *SQLiteDatabase) CreateSession(ctx context.Context, session *model.Session) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		session.Token, session.UserID, session.CreatedAt.UTC(), session.ExpiresAt.Unix())
	if err != nil {
		return storageErr("create session", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetSession(ctx context.Context, token string) (*model.Session, error) {
	session := &model.Session{}
	var expires int64
	err := s.db.QueryRowContext(ctx,
		`SELECT s.token, s.user_id, u.username, s.created_at, s.expires_at
		 FROM sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.token = ?`, token,
	).Scan(&session.Token, &session.UserID, &session.Username, &session.CreatedAt, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sitereports.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get session", err)
	}
	session.ExpiresAt = time.Unix(expires, 0).UTC()
	return session, nil
}

func (s *SQLiteDatabase) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return storageErr("delete session", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, storageErr("delete expired sessions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("delete expired sessions", err)
	}
	return n, nil
}
