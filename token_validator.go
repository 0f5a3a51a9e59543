package authkit

// TokenValidator validates raw bearer strings and extracts claims without
// tying callers to a specific signing implementation. This is the whole
// inbound contract with the HTTP layer: raw string in, validated claim set or
// rejection out.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrTokenMalformed
	}
	return f(tokenString)
}

var _ TokenValidator = (*TokenService)(nil)
