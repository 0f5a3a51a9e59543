package authkit

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// MaxLoginAttempts is the maximum number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// SessionManager orchestrates credential verification, token issuance, and
// refresh-token rotation into the four public session operations. All
// operations are request-scoped; the token store is the only shared state.
type SessionManager struct {
	users        UserStore
	tokens       TokenStore
	tokenService *TokenService
	refreshTTL   time.Duration
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

var _ Sessions = (*SessionManager)(nil)

// NewSessionManager returns a new SessionManager. It fails when the signing
// configuration is invalid.
func NewSessionManager(users UserStore, tokens TokenStore, cfg Config) (*SessionManager, error) {
	tokenService, err := NewTokenService(cfg, defLogger{})
	if err != nil {
		return nil, err
	}

	return &SessionManager{
		users:        users,
		tokens:       tokens,
		tokenService: tokenService,
		refreshTTL:   cfg.GetRefreshTokenTTL(),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}, nil
}

func (s *SessionManager) WithLogger(logger Logger) *SessionManager {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *SessionManager) WithActivitySink(sink ActivitySink) *SessionManager {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClock overrides the time source (useful for tests). The token service
// shares the clock so access and refresh expiries stay consistent.
func (s *SessionManager) WithClock(fn func() time.Time) *SessionManager {
	if fn != nil {
		s.now = fn
		s.tokenService.WithClock(fn)
	}
	return s
}

// TokenService returns the TokenService instance used by this SessionManager
func (s *SessionManager) TokenService() *TokenService {
	return s.tokenService
}

// Register creates a new user with the given initial permission claims and
// returns its ID.
func (s *SessionManager) Register(ctx context.Context, msg RegisterUserMessage) (uuid.UUID, error) {
	if err := msg.Validate(); err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CategoryValidation, "invalid registration payload")
	}

	hash, err := HashPassword(msg.Password)
	if err != nil {
		return uuid.Nil, err
	}

	user := &User{
		Email:        NormalizeEmail(msg.Email),
		DisplayName:  msg.DisplayName,
		PasswordHash: hash,
		TenantID:     msg.TenantID,
	}

	created, err := s.users.Register(ctx, user, msg.InitialClaims)
	if err != nil {
		return uuid.Nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventUserRegistered, ActorRef{ID: created.ID.String(), Type: "user"}, created.ID.String(), map[string]any{
		"email": created.Email,
	})

	return created.ID, nil
}

// Login verifies the credentials and mints a fresh token pair. Unknown email,
// wrong password, and inactive account all fail identically so the response
// carries no account-enumeration signal; the dummy compare keeps the
// not-found path on the same bcrypt budget as a real mismatch.
func (s *SessionManager) Login(ctx context.Context, email, password string, meta DeviceMetadata) (*TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			_ = ComparePasswordAndHash(password, dummyPasswordHash)
			s.emitLoginFailure(ctx, email, "")
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during login")
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	// if we have too many attempts in the given window, cool off!
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if err2 := s.users.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		s.emitLoginFailure(ctx, email, user.ID.String())
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.emitLoginFailure(ctx, email, user.ID.String())
		return nil, ErrInvalidCredentials
	}

	if err := s.users.TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Error("failed to track successful login: %v", err)
	}

	pair, err := s.mintPair(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"device_id": meta.DeviceID,
	})

	return pair, nil
}

// Refresh rotates the presented refresh token and mints a new pair. Claims
// are re-fetched from the store, so permission changes since the original
// login land in the new access token. Unknown, expired, revoked, and
// concurrently-rotated tokens all fail identically.
func (s *SessionManager) Refresh(ctx context.Context, refreshToken string, meta DeviceMetadata) (*TokenPair, error) {
	next, err := s.tokens.Rotate(ctx, refreshToken, s.refreshTTL, meta)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenInvalid) {
			s.emitAuthEvent(ctx, ActivityEventRefreshRejected, ActorRef{Type: "unknown"}, "", nil)
			return nil, ErrRefreshTokenInvalid
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "refresh token rotation failed")
	}

	user, err := s.users.FindByID(ctx, next.UserID)
	if err != nil || !user.IsActive {
		// The owning account vanished or was deactivated after rotation;
		// retire the whole session set rather than hand out a live chain.
		if err2 := s.tokens.RevokeAllForUser(ctx, next.UserID, ""); err2 != nil {
			s.logger.Error("failed to revoke tokens for unavailable user: %v", err2)
		}
		s.emitAuthEvent(ctx, ActivityEventRefreshRejected, ActorRef{Type: "unknown"}, next.UserID.String(), nil)
		return nil, ErrRefreshTokenInvalid
	}

	claims, err := s.users.GetClaims(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load claims during refresh")
	}

	access, accessExp, err := s.tokenService.Issue(identityFromUser(user), claims)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventTokenRefreshed, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"device_id": meta.DeviceID,
	})

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     next.Token,
		RefreshExpiresAt: next.ExpiresAt,
	}, nil
}

// Logout revokes every active refresh token the user owns, optionally scoped
// to one device. Calling it with nothing to revoke is a success.
func (s *SessionManager) Logout(ctx context.Context, userID uuid.UUID, deviceID string) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID, deviceID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke refresh tokens")
	}

	s.emitAuthEvent(ctx, ActivityEventSessionsRevoked, ActorRef{ID: userID.String(), Type: "user"}, userID.String(), map[string]any{
		"device_id": deviceID,
	})

	return nil
}

func (s *SessionManager) mintPair(ctx context.Context, user *User, meta DeviceMetadata) (*TokenPair, error) {
	claims, err := s.users.GetClaims(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load claims during login")
	}

	access, accessExp, err := s.tokenService.Issue(identityFromUser(user), claims)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.Issue(ctx, user.ID, s.refreshTTL, meta)
	if err != nil {
		if errors.Is(err, ErrTokenCollision) {
			// One in 2^256; regenerate once before giving up.
			refresh, err = s.tokens.Issue(ctx, user.ID, s.refreshTTL, meta)
		}
		if err != nil {
			return nil, err
		}
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh.Token,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

func (s *SessionManager) emitLoginFailure(ctx context.Context, identifier, userID string) {
	actor := ActorRef{Type: "unknown"}
	if userID != "" {
		actor = ActorRef{ID: userID, Type: "user"}
	}
	s.emitAuthEvent(ctx, ActivityEventLoginFailure, actor, userID, map[string]any{
		"identifier": NormalizeEmail(identifier),
	})
}

func (s *SessionManager) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}
