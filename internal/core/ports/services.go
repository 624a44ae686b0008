package ports

import (
	"context"
	"time"

	"wallet-settlement/internal/core/domain"

	"github.com/shopspring/decimal"
)

// CodeHasher derives the stored form of a one-time code (HMAC-SHA256).
type CodeHasher interface {
	Hash(subject string, code string) string
	Verify(subject string, code string, hash string) bool
}

// HashService handles password hashing (bcrypt).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(user *domain.User) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID      int64
	Email       string
	PhoneNumber string
	Verified    bool
}

// IdempotencyCache is the fast path in front of the payments unique index.
// Get returns nil, nil on a miss.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (*domain.Payment, error)
	Set(ctx context.Context, key string, payment *domain.Payment, ttl time.Duration) error
}

// CooldownStore throttles repeated actions per key.
type CooldownStore interface {
	// Acquire returns true if no cooldown was active for key and starts one.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// NotificationGateway delivers verification codes. Implementations must be
// safe for concurrent use.
type NotificationGateway interface {
	SendSMS(ctx context.Context, to string, body string) error
	SendEmail(ctx context.Context, to string, subject string, body string) error
}

// --- Service Ports (Business Logic) ---

// AccountResolver maps a merchant to the user whose wallet receives its payments.
type AccountResolver interface {
	ResolveOwner(ctx context.Context, merchantID int64) (int64, error)
}

// SettlementService moves funds from a payer to a merchant owner atomically.
type SettlementService interface {
	Settle(ctx context.Context, req SettlementRequest) (*domain.Payment, error)
}

// SettlementRequest holds validated input for a settlement.
type SettlementRequest struct {
	PayerUserID    int64
	MerchantID     int64
	Amount         decimal.Decimal
	Currency       string
	ProductID      int64
	IdempotencyKey string // empty: every call settles anew
}

// PaymentQueryService is the read and edit side of payment records.
type PaymentQueryService interface {
	ListByMerchant(ctx context.Context, merchantID int64) ([]domain.Payment, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error)
	Get(ctx context.Context, id int64) (*domain.Payment, error)
	UpdateFields(ctx context.Context, id int64, update domain.PaymentUpdate) (*domain.Payment, error)
	Cancel(ctx context.Context, id int64) (*domain.Payment, error)
	Delete(ctx context.Context, id int64) error
}

// VerificationService issues and checks one-time codes.
type VerificationService interface {
	// Issue returns a non-nil result even when delivery fails; the error is then DELIVERY_FAILED.
	Issue(ctx context.Context, channel domain.Channel, subject string) (*domain.IssueResult, error)
	Verify(ctx context.Context, channel domain.Channel, subject string, code string) (*domain.VerifiedOutcome, error)
	// RequireConsumed fails unless a code for subject was successfully verified.
	RequireConsumed(ctx context.Context, channel domain.Channel, subject string) error
}

// AccountService covers registration, login, email verification and the
// caller's own profile.
type AccountService interface {
	StartRegistration(ctx context.Context, phone string) (*domain.IssueResult, error)
	VerifyRegistration(ctx context.Context, phone string, code string) (*domain.VerifiedOutcome, error)
	CompleteRegistration(ctx context.Context, req RegistrationRequest) (*domain.User, error)
	Login(ctx context.Context, email string, password string) (string, time.Time, error) // token, expiry, error
	RequestEmailVerification(ctx context.Context, userID int64) (*domain.IssueResult, error)
	VerifyEmail(ctx context.Context, userID int64, code string) (*domain.User, error)
	GetProfile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateEmail(ctx context.Context, userID int64, email string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int64, currentPassword string, newPassword string) error
}

// RegistrationRequest holds input for completing a registration.
type RegistrationRequest struct {
	PhoneNumber string
	Username    string
	Email       string
	Password    string
}

// MerchantService manages merchants owned by users.
type MerchantService interface {
	Create(ctx context.Context, ownerUserID int64, name string) (*domain.Merchant, error)
	Get(ctx context.Context, id int64) (*domain.Merchant, error)
	ListByOwner(ctx context.Context, ownerUserID int64) ([]domain.Merchant, error)
}

// WalletService is the read side of wallets.
type WalletService interface {
	Balance(ctx context.Context, userID int64) (*domain.Wallet, error)
}

// AuditService records audit entries without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
