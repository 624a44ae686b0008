package dto

import (
	"time"

	"wallet-settlement/internal/core/domain"

	"github.com/shopspring/decimal"
)

// RegisterStartRequest asks for a phone verification code.
type RegisterStartRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
}

// RegisterVerifyRequest submits the code received by SMS.
type RegisterVerifyRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
}

// RegisterCompleteRequest creates the account for a verified phone.
type RegisterCompleteRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
	Username    string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Email       string `json:"email" binding:"required,email,max=255"`
	Password    string `json:"password" binding:"required,min=8,max=72" sanitize:"-"`
}

// UpdateProfileRequest is the request body for PUT /users/me.
type UpdateProfileRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// ChangePasswordRequest is the request body for PUT /users/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required" sanitize:"-"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72" sanitize:"-"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required" sanitize:"-"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// EmailVerifyRequest submits the code received by email.
type EmailVerifyRequest struct {
	Code string `json:"code" binding:"required,len=6,alphanum"`
}

// CodeIssuedResponse describes a freshly issued code. Delivered is false
// when the record was stored but the gateway failed.
type CodeIssuedResponse struct {
	Channel   string `json:"channel"`
	ExpiresAt string `json:"expires_at"`
	Delivered bool   `json:"delivered"`
}

// CodeVerifiedResponse is returned after a code is consumed.
type CodeVerifiedResponse struct {
	Channel    string `json:"channel"`
	VerifiedAt string `json:"verified_at"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	Verified      bool   `json:"verified"`
	EmailVerified bool   `json:"email_verified"`
	CreatedAt     string `json:"created_at"`
}

// SettleRequest is the request body for POST /payments. PayerUserID may be
// omitted; when present it must name the caller.
type SettleRequest struct {
	PayerUserID *int64          `json:"payer_user_id,omitempty"`
	MerchantID  int64           `json:"merchant_id" binding:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" binding:"required,currency"`
	ProductID   int64           `json:"product_id" binding:"gte=0"`
}

// UpdatePaymentRequest carries the optional fields of PUT /payments/:id.
type UpdatePaymentRequest struct {
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Currency  *string          `json:"currency,omitempty" binding:"omitempty,currency"`
	ProductID *int64           `json:"product_id,omitempty" binding:"omitempty,gte=0"`
	Status    *string          `json:"status,omitempty" binding:"omitempty,oneof=pending completed cancelled failed"`
}

// ToDomain converts the request into a domain.PaymentUpdate.
func (r UpdatePaymentRequest) ToDomain() domain.PaymentUpdate {
	update := domain.PaymentUpdate{
		Amount:    r.Amount,
		Currency:  r.Currency,
		ProductID: r.ProductID,
	}
	if r.Status != nil {
		status := domain.PaymentStatus(*r.Status)
		update.Status = &status
	}
	return update
}

// ListPaymentsQuery selects payments by merchant or by user. Exactly one is required.
type ListPaymentsQuery struct {
	MerchantID *int64 `form:"merchant_id" binding:"omitempty,gt=0"`
	UserID     *int64 `form:"user_id" binding:"omitempty,gt=0"`
}

// PaymentResponse is the public view of a payment.
type PaymentResponse struct {
	ID             int64   `json:"id"`
	MerchantID     int64   `json:"merchant_id"`
	PayerUserID    int64   `json:"payer_user_id"`
	OwnerUserID    int64   `json:"owner_user_id"`
	Amount         string  `json:"amount"`
	Currency       string  `json:"currency"`
	ProductID      int64   `json:"product_id"`
	Status         string  `json:"status"`
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// PaymentListResponse wraps a list of payments.
type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
	Count    int               `json:"count"`
}

// WalletBalanceResponse is the response for balance query.
type WalletBalanceResponse struct {
	UserID    int64  `json:"user_id"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
	UpdatedAt string `json:"updated_at"`
}

// CreateMerchantRequest is the request body for POST /merchants.
type CreateMerchantRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// MerchantResponse is the public view of a merchant.
type MerchantResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	OwnerUserID *int64 `json:"owner_user_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// NewUserResponse converts a domain.User.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		PhoneNumber:   u.PhoneNumber,
		Verified:      u.Verified,
		EmailVerified: u.EmailVerified,
		CreatedAt:     formatTime(u.CreatedAt),
	}
}

// NewPaymentResponse converts a domain.Payment.
func NewPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		MerchantID:     p.MerchantID,
		PayerUserID:    p.PayerUserID,
		OwnerUserID:    p.OwnerUserID,
		Amount:         p.Amount.String(),
		Currency:       p.Currency,
		ProductID:      p.ProductID,
		Status:         string(p.Status),
		IdempotencyKey: p.IdempotencyKey,
		CreatedAt:      formatTime(p.CreatedAt),
		UpdatedAt:      formatTime(p.UpdatedAt),
	}
}

// NewPaymentListResponse converts a slice of payments.
func NewPaymentListResponse(payments []domain.Payment) PaymentListResponse {
	items := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, NewPaymentResponse(&payments[i]))
	}
	return PaymentListResponse{Payments: items, Count: len(items)}
}

// NewMerchantResponse converts a domain.Merchant.
func NewMerchantResponse(m *domain.Merchant) MerchantResponse {
	return MerchantResponse{
		ID:          m.ID,
		Name:        m.Name,
		OwnerUserID: m.OwnerUserID,
		CreatedAt:   formatTime(m.CreatedAt),
	}
}

// NewCodeIssuedResponse converts a domain.IssueResult.
func NewCodeIssuedResponse(r *domain.IssueResult, delivered bool) CodeIssuedResponse {
	return CodeIssuedResponse{
		Channel:   string(r.Channel),
		ExpiresAt: formatTime(r.ExpiresAt),
		Delivered: delivered,
	}
}

// NewCodeVerifiedResponse converts a domain.VerifiedOutcome.
func NewCodeVerifiedResponse(o *domain.VerifiedOutcome) CodeVerifiedResponse {
	return CodeVerifiedResponse{
		Channel:    string(o.Channel),
		VerifiedAt: formatTime(o.VerifiedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
