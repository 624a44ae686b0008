package domain

import "errors"

// Repository outcomes the services branch on. Adapters wrap these so that
// callers can use errors.Is without knowing the storage engine.
var (
	ErrWalletNotFound          = errors.New("wallet not found")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used by payer")
	ErrAmountNotPositive       = errors.New("amount must be positive")
	ErrDuplicateUsername       = errors.New("username already taken")
	ErrDuplicateEmail          = errors.New("email already registered")
	ErrDuplicatePhone          = errors.New("phone number already registered")
)
