// Package core defines the shared interfaces and types for the TTS backend.
package core

import (
	"context"
	"errors"
	"time"
)

// Repository-level sentinel errors, shared so that callers can classify
// failures without depending on a concrete store implementation.
var (
	// ErrUsernameTaken indicates that a username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUserNotFound indicates that no user exists for the given username.
	ErrUserNotFound = errors.New("user not found")
)

// Synthesizer turns text into an audio file written at a destination path.
// Implementations own the full artifact write: directory preparation,
// stale-file removal, the provider call, and post-write verification.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, destinationPath string) error
}

// Notifier publishes artifact lifecycle events. Publishing is best-effort:
// callers log failures and never abort request handling on them.
type Notifier interface {
	AudioGenerated(ctx context.Context, filename string, sizeBytes int64) error
	AudioExpired(ctx context.Context, path string) error
}

// User is one registered account. PasswordHash is a salted one-way hash;
// the plaintext password is never stored or logged.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	IsActive     bool
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user User) error
	GetByUsername(ctx context.Context, username string) (User, error)
	UpdateLastLogin(ctx context.Context, userID string, loginAt time.Time) error
}
