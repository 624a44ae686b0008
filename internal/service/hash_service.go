package service

import (
	"errors"
	"fmt"

	"wallet-settlement/internal/core/ports"
	"wallet-settlement/pkg/apperror"

	"golang.org/x/crypto/bcrypt"
)

var _ ports.HashService = (*BcryptHashService)(nil)

// BcryptHashService hashes account passwords with bcrypt.
type BcryptHashService struct {
	cost int
}

// NewBcryptHashService uses bcrypt.DefaultCost when cost is 0.
func NewBcryptHashService(cost int) *BcryptHashService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHashService{cost: cost}
}

// Hash returns a salted hash. Passwords beyond bcrypt's 72-byte input are
// rejected as invalid input rather than silently truncated.
func (s *BcryptHashService) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperror.Validation("password must be at most 72 bytes")
	}
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify reports a mismatch as (false, nil); a malformed hash is an error.
func (s *BcryptHashService) Verify(password string, hash string) (bool, error) {
	switch err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("comparing password hash: %w", err)
	}
}
