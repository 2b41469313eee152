// Package auth holds the credential checks used by the security filter: one
// HTTP Basic user with a bcrypt-hashed password, and HS256 bearer tokens.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Credentials is the single in-memory user the security filter accepts.
type Credentials struct {
	user string
	hash []byte
}

// NewCredentials hashes password for user. When password is empty a random
// one is generated and returned so the caller can report it once.
func NewCredentials(user, password string) (*Credentials, string, error) {
	if user == "" {
		return nil, "", errors.New("auth: empty user name")
	}

	var generated string
	if password == "" {
		b := make([]byte, 16)
		if _, err := rand.Read(b); err != nil {
			return nil, "", fmt.Errorf("auth: generate password: %w", err)
		}
		generated = hex.EncodeToString(b)
		password = generated
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("auth: hash password: %w", err)
	}
	return &Credentials{user: user, hash: hash}, generated, nil
}

// User returns the accepted user name.
func (c *Credentials) User() string { return c.user }

// Check reports whether user and password match.
func (c *Credentials) Check(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.user)) == 1
	passOK := bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
	return userOK && passOK
}
