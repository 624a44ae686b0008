package ports

import (
	"context"
	"time"

	"wallet-settlement/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Lookups return (nil, nil) when the row does not exist.

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, tx pgx.Tx, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	SetEmailVerified(ctx context.Context, id int64) error
	// UpdateEmail changes the address and clears email_verified.
	UpdateEmail(ctx context.Context, id int64, email string) error
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id int64) (*domain.Merchant, error)
	ListByOwner(ctx context.Context, ownerUserID int64) ([]domain.Merchant, error)
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByUserID(ctx context.Context, userID int64) (*domain.Wallet, error)
	// LockForUpdate locks the wallets of userIDs in ascending user_id order.
	LockForUpdate(ctx context.Context, tx pgx.Tx, userIDs []int64) ([]domain.Wallet, error)
	// ApplyDelta adds a signed delta to a wallet and returns the new balance.
	ApplyDelta(ctx context.Context, tx pgx.Tx, userID int64, delta decimal.Decimal) (decimal.Decimal, error)
}

// PaymentRepository defines persistence operations for payment records.
type PaymentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByIdempotencyKey(ctx context.Context, payerUserID int64, key string) (*domain.Payment, error)
	ListByMerchant(ctx context.Context, merchantID int64) ([]domain.Payment, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error)
	// Update writes the editable fields only if the row still has expectedStatus.
	// Returns nil when the row was changed concurrently or no longer exists.
	Update(ctx context.Context, payment *domain.Payment, expectedStatus domain.PaymentStatus) (*domain.Payment, error)
	// Cancel moves a completed or pending payment to cancelled.
	// Returns nil when no row was in a cancellable status.
	Cancel(ctx context.Context, id int64) (*domain.Payment, error)
	// Delete removes a pending or failed payment. Returns false when nothing was deleted.
	Delete(ctx context.Context, id int64) (bool, error)
}

// VerificationRepository stores one live verification record per channel and subject.
type VerificationRepository interface {
	// Upsert replaces any previous record for the subject and resets consumption.
	Upsert(ctx context.Context, record *domain.VerificationRecord) error
	Get(ctx context.Context, channel domain.Channel, subject string) (*domain.VerificationRecord, error)
	// MarkConsumed flips consumed exactly once, and only while the record still
	// holds codeHash. Returns false if already consumed or superseded.
	MarkConsumed(ctx context.Context, id int64, codeHash string, at time.Time) (bool, error)
	Delete(ctx context.Context, tx pgx.Tx, channel domain.Channel, subject string) error
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
