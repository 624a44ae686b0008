package domain

import "time"

// Merchant is a payee. Funds paid to a merchant land in its owner's wallet.
type Merchant struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID *int64    `json:"owner_user_id,omitempty"` // nil: unlinked, cannot receive payments
	CreatedAt   time.Time `json:"created_at"`
}

// IsLinked returns true if the merchant has an owning user.
func (m *Merchant) IsLinked() bool {
	return m.OwnerUserID != nil
}
