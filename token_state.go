package authkit

import "time"

// TokenState describes the lifecycle of a refresh token. Active is the only
// non-terminal state: revocation is a single stored transition, expiry is
// time-driven and never written back.
type TokenState string

const (
	TokenStateActive  TokenState = "active"
	TokenStateRevoked TokenState = "revoked"
	TokenStateExpired TokenState = "expired"
)

// StateAt derives the token state at the given instant. A token that is both
// revoked and past expiry reports revoked; the stored transition wins.
func StateAt(token *RefreshToken, now time.Time) TokenState {
	if token == nil {
		return TokenStateExpired
	}
	if token.RevokedAt != nil {
		return TokenStateRevoked
	}
	if !now.Before(token.ExpiresAt) {
		return TokenStateExpired
	}
	return TokenStateActive
}

// CanRevoke reports whether a revocation transition is allowed from the
// current state. Revoked and Expired are terminal.
func CanRevoke(token *RefreshToken, now time.Time) bool {
	return StateAt(token, now) == TokenStateActive
}
