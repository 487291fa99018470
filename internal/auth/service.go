// Package auth provides user registration, login, and bearer token
// issuance and verification.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hawker-audio/tts-backend/internal/core"
)

// Credential policy bounds. Lengths are counted in characters, except the
// password maximum, which is bcrypt's 72-byte input limit.
const (
	MinUsernameLength = 1
	MaxUsernameLength = 13
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// DefaultTokenExpiry is used when no expiry is configured.
const DefaultTokenExpiry = 30 * time.Minute

// TokenType is the token type reported alongside issued access tokens.
const TokenType = "bearer"

// Static errors.
var (
	// ErrUsernameLength indicates a username outside the 1..13 character range.
	ErrUsernameLength = errors.New("username must be between 1 and 13 characters")
	// ErrPasswordLength indicates a password outside the 8..72 character range.
	ErrPasswordLength = errors.New("password must be between 8 and 72 characters")
	// ErrInvalidCredentials indicates an unknown username or a wrong
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountDisabled indicates a login attempt on a deactivated account.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrInvalidToken indicates an expired, malformed, or forged token.
	ErrInvalidToken = errors.New("invalid token")
)

// Service implements registration, login, and token handling on top of a
// user repository. Tokens are HS256-signed JWTs carrying the username as
// the subject claim.
type Service struct {
	users       core.UserRepository
	secret      []byte
	tokenExpiry time.Duration
	now         func() time.Time
}

// NewService creates an auth service. A non-positive tokenExpiry falls
// back to DefaultTokenExpiry.
func NewService(users core.UserRepository, secret string, tokenExpiry time.Duration) *Service {
	if tokenExpiry <= 0 {
		tokenExpiry = DefaultTokenExpiry
	}

	return &Service{
		users:       users,
		secret:      []byte(secret),
		tokenExpiry: tokenExpiry,
		now:         time.Now,
	}
}

// Register creates a new active user and issues a token for it. The
// plaintext password is hashed with bcrypt and never stored.
func (s *Service) Register(ctx context.Context, username, password string) (core.User, string, error) {
	err := validateCredentials(username, password)
	if err != nil {
		return core.User{}, "", err
	}

	hash, hashErr := bcrypt.GenerateFromPassword(
		[]byte(password),
		bcrypt.DefaultCost,
	)
	if hashErr != nil {
		return core.User{}, "", fmt.Errorf("failed to hash password: %w", hashErr)
	}

	user := core.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
		LastLoginAt:  nil,
		IsActive:     true,
	}

	createErr := s.users.Create(ctx, user)
	if createErr != nil {
		return core.User{}, "", createErr
	}

	token, tokenErr := s.issueToken(username)
	if tokenErr != nil {
		return core.User{}, "", tokenErr
	}

	return user, token, nil
}

// Login authenticates a username/password pair and issues a token. A
// successful login records the login time.
func (s *Service) Login(ctx context.Context, username, password string) (core.User, string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return core.User{}, "", ErrInvalidCredentials
		}

		return core.User{}, "", err
	}

	if !user.IsActive {
		return core.User{}, "", ErrAccountDisabled
	}

	compareErr := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash),
		[]byte(password),
	)
	if compareErr != nil {
		return core.User{}, "", ErrInvalidCredentials
	}

	loginAt := s.now().UTC()

	updateErr := s.users.UpdateLastLogin(ctx, user.ID, loginAt)
	if updateErr != nil {
		return core.User{}, "", updateErr
	}

	user.LastLoginAt = &loginAt

	token, tokenErr := s.issueToken(username)
	if tokenErr != nil {
		return core.User{}, "", tokenErr
	}

	return user, token, nil
}

// VerifyToken validates a bearer token and returns the username it was
// issued for.
func (s *Service) VerifyToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(_ *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// CurrentUser resolves a bearer token to the user it belongs to.
func (s *Service) CurrentUser(ctx context.Context, token string) (core.User, error) {
	username, err := s.VerifyToken(token)
	if err != nil {
		return core.User{}, err
	}

	user, getErr := s.users.GetByUsername(ctx, username)
	if getErr != nil {
		if errors.Is(getErr, core.ErrUserNotFound) {
			return core.User{}, ErrInvalidToken
		}

		return core.User{}, getErr
	}

	return user, nil
}

// issueToken signs an HS256 JWT with the username as subject.
func (s *Service) issueToken(username string) (string, error) {
	issuedAt := s.now().UTC()

	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.tokenExpiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// validateCredentials enforces the username and password policy at the
// boundary, before any hashing or persistence. Bounds count characters,
// not bytes, so multibyte usernames are not penalized; only the password
// maximum is a byte check, because bcrypt refuses input beyond 72 bytes.
func validateCredentials(username, password string) error {
	usernameRunes := utf8.RuneCountInString(username)
	if usernameRunes < MinUsernameLength || usernameRunes > MaxUsernameLength {
		return ErrUsernameLength
	}

	if utf8.RuneCountInString(password) < MinPasswordLength ||
		len(password) > MaxPasswordLength {
		return ErrPasswordLength
	}

	return nil
}
