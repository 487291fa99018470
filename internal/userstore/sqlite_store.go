// Package userstore provides a SQLite-backed implementation of the
// core.UserRepository interface.
package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hawker-audio/tts-backend/internal/core"
)

// Timestamps are stored as RFC 3339 strings so rows stay readable with
// any SQLite tooling.
const timestampLayout = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	last_login_at TEXT,
	is_active     INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_users_username ON users (username);
`

// SQLiteStore implements core.UserRepository on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open initializes the user store at the given path, creating the parent
// directory and schema as needed.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		mkdirErr := os.MkdirAll(dir, 0o750)
		if mkdirErr != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", mkdirErr)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	pingErr := db.PingContext(ctx)
	if pingErr != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping sqlite database: %w", pingErr)
	}

	_, schemaErr := db.ExecContext(ctx, schema)
	if schemaErr != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to initialize schema: %w", schemaErr)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close sqlite database: %w", err)
	}

	return nil
}

// Create inserts a new user. A duplicate username maps to
// core.ErrUsernameTaken; uniqueness is enforced by the database, not by a
// racy pre-check.
func (s *SQLiteStore) Create(ctx context.Context, user core.User) error {
	const insert = `
INSERT INTO users (id, username, password_hash, created_at, last_login_at, is_active)
VALUES (?, ?, ?, ?, NULL, ?)`

	_, err := s.db.ExecContext(
		ctx,
		insert,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt.UTC().Format(timestampLayout),
		boolToInt(user.IsActive),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", core.ErrUsernameTaken, user.Username)
		}

		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByUsername loads a user by username, returning core.ErrUserNotFound
// if no row matches.
func (s *SQLiteStore) GetByUsername(ctx context.Context, username string) (core.User, error) {
	const query = `
SELECT id, username, password_hash, created_at, last_login_at, is_active
FROM users WHERE username = ?`

	var (
		user        core.User
		createdAt   string
		lastLoginAt sql.NullString
		isActive    int
	)

	row := s.db.QueryRowContext(ctx, query, username)

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&createdAt,
		&lastLoginAt,
		&isActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, fmt.Errorf("%w: %s", core.ErrUserNotFound, username)
		}

		return core.User{}, fmt.Errorf("failed to query user: %w", err)
	}

	user.IsActive = isActive != 0

	parsedCreatedAt, parseErr := time.Parse(timestampLayout, createdAt)
	if parseErr != nil {
		return core.User{}, fmt.Errorf("failed to parse created_at: %w", parseErr)
	}

	user.CreatedAt = parsedCreatedAt

	if lastLoginAt.Valid {
		parsedLastLogin, loginParseErr := time.Parse(timestampLayout, lastLoginAt.String)
		if loginParseErr != nil {
			return core.User{}, fmt.Errorf(
				"failed to parse last_login_at: %w",
				loginParseErr,
			)
		}

		user.LastLoginAt = &parsedLastLogin
	}

	return user, nil
}

// UpdateLastLogin records a successful login time for the user.
func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, userID string, loginAt time.Time) error {
	const update = `UPDATE users SET last_login_at = ? WHERE id = ?`

	_, err := s.db.ExecContext(
		ctx,
		update,
		loginAt.UTC().Format(timestampLayout),
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether an error is a SQLite unique
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}

	return false
}

func boolToInt(value bool) int {
	if value {
		return 1
	}

	return 0
}
