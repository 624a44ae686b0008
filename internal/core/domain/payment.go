package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Valid reports whether s is a known status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusCancelled, PaymentStatusFailed:
		return true
	}
	return false
}

// Completion moves money, so only settlement may produce a completed payment.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusCompleted: {PaymentStatusCancelled},
}

// CanTransition reports whether a payment may move from s to next.
// Staying in the same status is always allowed.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Payment is the record of one settlement. A completed payment exists
// only if both wallet deltas of its settlement were applied.
type Payment struct {
	ID             int64           `json:"id"`
	MerchantID     int64           `json:"merchant_id"`
	PayerUserID    int64           `json:"payer_user_id"`
	OwnerUserID    int64           `json:"owner_user_id"` // merchant owner at settlement time
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	ProductID      int64           `json:"product_id"`
	Status         PaymentStatus   `json:"status"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsEditable returns true while amount and currency may still change.
func (p *Payment) IsEditable() bool {
	return p.Status == PaymentStatusPending
}

// IsDeletable returns true for rows that never moved money.
func (p *Payment) IsDeletable() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusFailed
}

// InvolvesUser reports whether userID paid or received this payment.
func (p *Payment) InvolvesUser(userID int64) bool {
	return p.PayerUserID == userID || p.OwnerUserID == userID
}

// PaymentUpdate carries the optional fields of an edit. Nil means unchanged.
type PaymentUpdate struct {
	Amount    *decimal.Decimal
	Currency  *string
	ProductID *int64
	Status    *PaymentStatus
}

// IsEmpty returns true if no field is set.
func (u PaymentUpdate) IsEmpty() bool {
	return u.Amount == nil && u.Currency == nil && u.ProductID == nil && u.Status == nil
}

// Apply returns a copy of p with the update's fields set.
func (u PaymentUpdate) Apply(p Payment) Payment {
	if u.Amount != nil {
		p.Amount = *u.Amount
	}
	if u.Currency != nil {
		p.Currency = *u.Currency
	}
	if u.ProductID != nil {
		p.ProductID = *u.ProductID
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	return p
}
