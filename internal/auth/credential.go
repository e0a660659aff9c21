// Package auth verifies the operator password and issues the signed session
// token that marks a request as an admin session.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid password")

// Credential is the bcrypt hash of the single operator password.
type Credential struct {
	hash []byte
}

// NewCredential rejects anything that is not a bcrypt hash so a plaintext
// password pasted into config fails at startup.
func NewCredential(hash string) (Credential, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return Credential{}, fmt.Errorf("auth: admin password hash: %w", err)
	}
	return Credential{hash: []byte(hash)}, nil
}

// Verify returns ErrInvalidCredentials when plaintext does not match.
func (c Credential) Verify(plaintext string) error {
	err := bcrypt.CompareHashAndPassword(c.hash, []byte(plaintext))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("auth.Verify: %w", err)
	}
	return nil
}

// HashPassword produces a hash suitable for admin.password_hash.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
