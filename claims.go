package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents a validated access token's claim set.
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	TenantID() string
	HasPermission(permission string) bool
	Permissions() []string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. Permission claims
// are copied verbatim from the user's stored claim set at issuance time.
type JWTClaims struct {
	jwt.RegisteredClaims
	UserEmail string   `json:"email,omitempty"`
	Name      string   `json:"name,omitempty"`
	Tenant    string   `json:"tenant_id,omitempty"`
	Perms     []string `json:"perm,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID, which is the subject claim.
func (c *JWTClaims) UserID() string {
	return c.Subject()
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// TenantID returns the tenant claim, empty for single-tenant deployments.
func (c *JWTClaims) TenantID() string {
	return c.Tenant
}

// HasPermission checks if the permission is present verbatim in the claim set.
func (c *JWTClaims) HasPermission(permission string) bool {
	for _, p := range c.Perms {
		if p == permission {
			return true
		}
	}
	return false
}

// Permissions returns a copy of the permission claims.
func (c *JWTClaims) Permissions() []string {
	if len(c.Perms) == 0 {
		return nil
	}
	out := make([]string, len(c.Perms))
	copy(out, c.Perms)
	return out
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
