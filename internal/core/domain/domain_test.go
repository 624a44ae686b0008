package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMerchant_IsLinked(t *testing.T) {
	owner := int64(7)
	assert.True(t, (&Merchant{OwnerUserID: &owner}).IsLinked())
	assert.False(t, (&Merchant{}).IsLinked())
}

func TestUser_CanTransact(t *testing.T) {
	assert.True(t, (&User{Verified: true}).CanTransact())
	assert.False(t, (&User{}).CanTransact())
}

func TestPaymentStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{PaymentStatusPending, PaymentStatusCompleted, false},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusCancelled, true},
		{PaymentStatusCompleted, PaymentStatusCancelled, true},
		{PaymentStatusCompleted, PaymentStatusPending, false},
		{PaymentStatusCompleted, PaymentStatusFailed, false},
		{PaymentStatusCancelled, PaymentStatusCompleted, false},
		{PaymentStatusFailed, PaymentStatusCancelled, false},
		{PaymentStatusCancelled, PaymentStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestPaymentStatus_Valid(t *testing.T) {
	assert.True(t, PaymentStatusCompleted.Valid())
	assert.False(t, PaymentStatus("refunded").Valid())
}

func TestPayment_EditableAndDeletable(t *testing.T) {
	tests := []struct {
		status    PaymentStatus
		editable  bool
		deletable bool
	}{
		{PaymentStatusPending, true, true},
		{PaymentStatusCompleted, false, false},
		{PaymentStatusCancelled, false, false},
		{PaymentStatusFailed, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			p := &Payment{Status: tt.status}
			assert.Equal(t, tt.editable, p.IsEditable())
			assert.Equal(t, tt.deletable, p.IsDeletable())
		})
	}
}

func TestPayment_InvolvesUser(t *testing.T) {
	p := &Payment{PayerUserID: 1, OwnerUserID: 2}
	assert.True(t, p.InvolvesUser(1))
	assert.True(t, p.InvolvesUser(2))
	assert.False(t, p.InvolvesUser(3))
}

func TestPaymentUpdate_Apply(t *testing.T) {
	amount := decimal.RequireFromString("12.50")
	status := PaymentStatusCompleted
	product := int64(99)

	p := Payment{Amount: decimal.NewFromInt(10), Currency: "USD", ProductID: 1, Status: PaymentStatusPending}
	got := PaymentUpdate{Amount: &amount, ProductID: &product, Status: &status}.Apply(p)

	assert.True(t, got.Amount.Equal(amount))
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, int64(99), got.ProductID)
	assert.Equal(t, PaymentStatusCompleted, got.Status)
	assert.Equal(t, PaymentStatusPending, p.Status, "original is not modified")

	assert.True(t, PaymentUpdate{}.IsEmpty())
	assert.False(t, PaymentUpdate{Status: &status}.IsEmpty())
}

func TestVerificationRecord_IsExpired(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := &VerificationRecord{CreatedAt: created}
	window := 10 * time.Minute

	assert.False(t, r.IsExpired(created.Add(window-time.Second), window))
	assert.False(t, r.IsExpired(created.Add(window), window), "exactly at the window is still valid")
	assert.True(t, r.IsExpired(created.Add(window+time.Second), window))
	assert.Equal(t, created.Add(window), r.ExpiresAt(window))
}

func TestChannel_Valid(t *testing.T) {
	assert.True(t, ChannelSMS.Valid())
	assert.True(t, ChannelEmail.Valid())
	assert.False(t, Channel("fax").Valid())
}

func TestBuildIdempotencyKey(t *testing.T) {
	assert.Equal(t, "42:order-001", BuildIdempotencyKey(42, "order-001"))
}

func TestPaymentStatus_Constants(t *testing.T) {
	assert.Equal(t, PaymentStatus("pending"), PaymentStatusPending)
	assert.Equal(t, PaymentStatus("completed"), PaymentStatusCompleted)
	assert.Equal(t, PaymentStatus("cancelled"), PaymentStatusCancelled)
	assert.Equal(t, PaymentStatus("failed"), PaymentStatusFailed)
}
