package domain

import "time"

// Channel is the delivery medium of a one-time code.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelSMS || c == ChannelEmail
}

// VerificationRecord is the single live code for a subject (phone or email).
// Re-issuing replaces the record.
type VerificationRecord struct {
	ID         int64      `json:"id"`
	Subject    string     `json:"subject"`
	Channel    Channel    `json:"channel"`
	CodeHash   string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	Consumed   bool       `json:"consumed"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
}

// ExpiresAt returns the instant after which the code is rejected.
func (r *VerificationRecord) ExpiresAt(window time.Duration) time.Time {
	return r.CreatedAt.Add(window)
}

// IsExpired applies the strict rule: a code is expired once more than
// window has elapsed since issuance. Exactly window old is still valid.
func (r *VerificationRecord) IsExpired(now time.Time, window time.Duration) bool {
	return now.Sub(r.CreatedAt) > window
}

// IssueResult is returned when a code is issued. Code is only populated
// for callers that deliver it themselves (tests and the log gateway).
type IssueResult struct {
	Subject   string    `json:"subject"`
	Channel   Channel   `json:"channel"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifiedOutcome is returned by a successful verification.
type VerifiedOutcome struct {
	Subject    string    `json:"subject"`
	Channel    Channel   `json:"channel"`
	VerifiedAt time.Time `json:"verified_at"`
}
