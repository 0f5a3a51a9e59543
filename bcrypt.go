package authkit

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password. bcrypt's comparison is constant time
// with respect to the supplied password.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}

// dummyPasswordHash is compared against when no user record exists so that a
// failed lookup costs the same as a failed password check. Hash of a random
// UUID, never a valid credential.
var dummyPasswordHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte("8f7d3a4e-anti-enumeration-pad"), passwordHashCost())
	if err != nil {
		panic(err)
	}
	return string(h)
}()
