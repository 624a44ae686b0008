package domain

import "time"

// User is a registered account holder. Every user owns exactly one wallet.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PhoneNumber   string    `json:"phone_number"`
	PasswordHash  string    `json:"-"` // Never expose
	Verified      bool      `json:"verified"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CanTransact reports whether the user may take part in a settlement.
func (u *User) CanTransact() bool {
	return u.Verified
}
