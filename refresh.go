package authkit

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/goliatone/go-errors"
)

// refreshTokenEntropy is the number of random bytes in a refresh token value.
// 32 bytes gives 256 bits; a predictable value here is a full account
// takeover, so only crypto/rand will do.
const refreshTokenEntropy = 32

// GenerateRefreshValue produces an opaque, URL-safe refresh token value.
func GenerateRefreshValue() (string, error) {
	buf := make([]byte, refreshTokenEntropy)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate refresh token value")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
