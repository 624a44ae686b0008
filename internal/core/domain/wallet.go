package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's balance. Balances are exact decimals and are never rounded.
type Wallet struct {
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
