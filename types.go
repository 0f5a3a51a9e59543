package authkit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

// Identity holds the attributes of an identity embedded into access tokens
type Identity interface {
	ID() string
	Email() string
	DisplayName() string
	TenantID() string
}

// TokenPair is the result of Login and Refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// DeviceMetadata is optional client context recorded with refresh tokens.
type DeviceMetadata struct {
	DeviceID  string `json:"device_id,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Sessions holds the public operations consumed by the HTTP layer.
type Sessions interface {
	Register(ctx context.Context, msg RegisterUserMessage) (uuid.UUID, error)
	Login(ctx context.Context, email, password string, meta DeviceMetadata) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string, meta DeviceMetadata) (*TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID, deviceID string) error
}

// UserStore is the user-record collaborator the session core consumes.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Register(ctx context.Context, user *User, claims []string) (*User, error)
	GetClaims(ctx context.Context, userID uuid.UUID) ([]string, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// TokenStore owns refresh-token persistence and the rotation state machine.
type TokenStore interface {
	Issue(ctx context.Context, userID uuid.UUID, ttl time.Duration, meta DeviceMetadata) (*RefreshToken, error)
	Rotate(ctx context.Context, value string, ttl time.Duration, meta DeviceMetadata) (*RefreshToken, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, deviceID string) error
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
