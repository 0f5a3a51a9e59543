package authkit

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ClaimTypePermission tags permission claims. Identity claims (sub, email)
// are derived from the user record itself and never stored in user_claims.
const ClaimTypePermission = "perm"

// Permission catalog. Values follow the resource.action convention; the core
// never interprets them beyond set membership.
const (
	PermissionEmployeesRead  = "employees.read"
	PermissionEmployeesWrite = "employees.write"
	PermissionClientsRead    = "clients.read"
	PermissionClientsWrite   = "clients.write"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	TenantID       uuid.UUID  `bun:"tenant_id,nullzero,type:uuid" json:"tenant_id,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName    string     `bun:"display_name" json:"display_name,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	IsActive       bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// UserClaim is a typed (type, value) pair attached to a user. Permission
// claims carry ClaimTypePermission; the pair (user_id, type, value) is unique.
type UserClaim struct {
	bun.BaseModel `bun:"table:user_claims,alias:ucl"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Type          string     `bun:"type,notnull" json:"type,omitempty"`
	Value         string     `bun:"value,notnull" json:"value,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// RefreshToken is the persisted refresh-token record. Rows are never deleted;
// revocation sets revoked_at exactly once and the row remains as an audit
// trail. Activity is always computed from the two timestamps, never stored.
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rft"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Token         string     `bun:"token,notnull" json:"-"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	RevokedAt     *time.Time `bun:"revoked_at,nullzero" json:"revoked_at,omitempty"`
	DeviceID      string     `bun:"device_id" json:"device_id,omitempty"`
	IP            string     `bun:"ip" json:"ip,omitempty"`
	UserAgent     string     `bun:"user_agent" json:"user_agent,omitempty"`
}

// ActiveAt reports whether the token is usable at the given instant.
func (t *RefreshToken) ActiveAt(now time.Time) bool {
	if t == nil {
		return false
	}
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// NormalizeEmail canonicalizes an email for storage and lookup. Uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func identityFromUser(user *User) authIdentity {
	return authIdentity{
		id:          user.ID.String(),
		email:       user.Email,
		displayName: user.DisplayName,
		tenantID:    tenantString(user.TenantID),
	}
}

func tenantString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

type authIdentity struct {
	id          string
	email       string
	displayName string
	tenantID    string
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) DisplayName() string {
	return a.displayName
}

func (a authIdentity) TenantID() string {
	return a.tenantID
}

var _ Identity = authIdentity{}
