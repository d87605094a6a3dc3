package handler

import (
	"crypto/subtle"
	"fmt"

	"filehttpd/internal/status"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt cost used by HashToken callers that have no
// reason to pick another.
const DefaultHashCost = 12

// Verifier decides whether a supplied token matches the configured secret.
type Verifier interface {
	Verify(supplied string) bool
}

// PlainToken matches by exact, case-sensitive equality, in constant time
// for equal-length inputs.
type PlainToken string

func (t PlainToken) Verify(supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(t), []byte(supplied)) == 1
}

// HashedToken matches tokens against a bcrypt hash.
type HashedToken []byte

// NewHashedToken checks that hash is a usable bcrypt hash.
func NewHashedToken(hash string) (HashedToken, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("token hash: %w", err)
	}
	return HashedToken(hash), nil
}

func (h HashedToken) Verify(supplied string) bool {
	return bcrypt.CompareHashAndPassword(h, []byte(supplied)) == nil
}

// HashToken creates a bcrypt hash of token for use with HashedToken.
func HashToken(token string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}

type TerminateHandler struct {
	verifier Verifier
}

func NewTerminateHandler(v Verifier) *TerminateHandler {
	return &TerminateHandler{verifier: v}
}

// Evaluate returns (true, ShuttingDown) when supplied matches the secret and
// (false, Forbidden) otherwise.
func (t *TerminateHandler) Evaluate(supplied string) (bool, status.Status) {
	if t.verifier.Verify(supplied) {
		return true, status.ShuttingDown
	}
	return false, status.Forbidden
}
