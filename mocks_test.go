package authkit_test

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mars-hq/authkit"
)

// MockLogger implements authkit.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// noopLogger swallows everything; use it where log output is irrelevant.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// testConfig implements authkit.Config with fixed values.
type testConfig struct {
	signingKey string
	issuer     string
	audience   []string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey: "test-signing-key-needs-32-bytes!",
		issuer:     "mars",
		audience:   []string{"mars:api"},
		accessTTL:  30 * time.Minute,
		refreshTTL: 14 * 24 * time.Hour,
	}
}

func (c *testConfig) GetSigningKey() string             { return c.signingKey }
func (c *testConfig) GetIssuer() string                 { return c.issuer }
func (c *testConfig) GetAudience() []string             { return c.audience }
func (c *testConfig) GetAccessTokenTTL() time.Duration  { return c.accessTTL }
func (c *testConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }

// memoryUserStore is an in-memory authkit.UserStore.
type memoryUserStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*authkit.User
	claims map[uuid.UUID][]string
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		users:  map[uuid.UUID]*authkit.User{},
		claims: map[uuid.UUID][]string{},
	}
}

func (s *memoryUserStore) FindByEmail(ctx context.Context, email string) (*authkit.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == authkit.NormalizeEmail(email) {
			return user, nil
		}
	}
	return nil, goerrors.New("user not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound)
}

func (s *memoryUserStore) FindByID(ctx context.Context, id uuid.UUID) (*authkit.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, goerrors.New("user not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound)
}

func (s *memoryUserStore) Register(ctx context.Context, user *authkit.User, claims []string) (*authkit.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, authkit.ErrEmailTaken
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.IsActive = true
	s.users[user.ID] = user
	s.claims[user.ID] = claims
	return user, nil
}

func (s *memoryUserStore) GetClaims(ctx context.Context, userID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.claims[userID]))
	copy(out, s.claims[userID])
	return out, nil
}

func (s *memoryUserStore) setClaims(userID uuid.UUID, claims ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[userID] = claims
}

func (s *memoryUserStore) TrackAttemptedLogin(ctx context.Context, user *authkit.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.users[user.ID]; ok {
		stored.LoginAttempts++
		now := time.Now()
		stored.LoginAttemptAt = &now
	}
	return nil
}

func (s *memoryUserStore) TrackSuccessfulLogin(ctx context.Context, user *authkit.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.users[user.ID]; ok {
		stored.LoginAttempts = 0
		stored.LoginAttemptAt = nil
		now := time.Now()
		stored.LoggedInAt = &now
	}
	return nil
}

// memoryTokenStore is an in-memory authkit.TokenStore. Rotate performs the
// same compare-and-swap the SQL store does, guarded by the mutex, so
// concurrent rotations of one value resolve to a single winner.
type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*authkit.RefreshToken
	now    func() time.Time

	issueErrs []error
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{
		tokens: map[string]*authkit.RefreshToken{},
		now:    time.Now,
	}
}

func (s *memoryTokenStore) Issue(ctx context.Context, userID uuid.UUID, ttl time.Duration, meta authkit.DeviceMetadata) (*authkit.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(userID, ttl, meta)
}

func (s *memoryTokenStore) issueLocked(userID uuid.UUID, ttl time.Duration, meta authkit.DeviceMetadata) (*authkit.RefreshToken, error) {
	if len(s.issueErrs) > 0 {
		err := s.issueErrs[0]
		s.issueErrs = s.issueErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	value, err := authkit.GenerateRefreshValue()
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &authkit.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     value,
		ExpiresAt: now.Add(ttl),
		CreatedAt: &now,
		DeviceID:  meta.DeviceID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}
	s.tokens[value] = record
	return record, nil
}

func (s *memoryTokenStore) Rotate(ctx context.Context, value string, ttl time.Duration, meta authkit.DeviceMetadata) (*authkit.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tokens[value]
	if !ok {
		return nil, authkit.ErrRefreshTokenInvalid
	}

	now := s.now()
	if !authkit.CanRevoke(current, now) {
		return nil, authkit.ErrRefreshTokenInvalid
	}

	current.RevokedAt = &now
	return s.issueLocked(current.UserID, ttl, meta)
}

func (s *memoryTokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, token := range s.tokens {
		if token.UserID != userID {
			continue
		}
		if deviceID != "" && token.DeviceID != deviceID {
			continue
		}
		if authkit.CanRevoke(token, now) {
			at := now
			token.RevokedAt = &at
		}
	}
	return nil
}

func (s *memoryTokenStore) activeCount(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for _, token := range s.tokens {
		if token.UserID == userID && authkit.StateAt(token, now) == authkit.TokenStateActive {
			count++
		}
	}
	return count
}

// recordingSink captures emitted activity events.
type recordingSink struct {
	mu     sync.Mutex
	events []authkit.ActivityEvent
}

func (s *recordingSink) Record(ctx context.Context, event authkit.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []authkit.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]authkit.ActivityEventType, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.EventType)
	}
	return out
}

var _ authkit.UserStore = (*memoryUserStore)(nil)
var _ authkit.TokenStore = (*memoryTokenStore)(nil)
var _ authkit.ActivitySink = (*recordingSink)(nil)
var _ authkit.Logger = (*MockLogger)(nil)
var _ authkit.Config = (*testConfig)(nil)
