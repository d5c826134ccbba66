package stage

import (
	"crypto/subtle"

	"github.com/cradoe/gopass"
)

// PasswordScheme decides how passwords are kept in the onboarding record.
type PasswordScheme interface {
	Seal(password string) (string, error)
	Matches(password, stored string) (bool, error)
}

// PlaintextPasswords stores passwords as given and compares them for
// equality. It stands in for a real credential backend and must not be used
// with real credentials.
type PlaintextPasswords struct{}

func (PlaintextPasswords) Seal(password string) (string, error) {
	return password, nil
}

func (PlaintextPasswords) Matches(password, stored string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1, nil
}

// HashedPasswords stores a salted hash instead of the password.
type HashedPasswords struct{}

func (HashedPasswords) Seal(password string) (string, error) {
	return gopass.Hash(password)
}

func (HashedPasswords) Matches(password, stored string) (bool, error) {
	return gopass.ComparePasswordAndHash(password, stored)
}
