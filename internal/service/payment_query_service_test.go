package service

import (
	"context"
	"errors"
	"testing"

	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"
	"wallet-settlement/internal/core/ports/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupPaymentQuery(t *testing.T) (ports.PaymentQueryService, *mocks.MockPaymentRepository) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPaymentRepository(ctrl)
	return NewPaymentQueryService(repo, "usd", newTestLogger()), repo
}

func paymentWithStatus(status domain.PaymentStatus) *domain.Payment {
	return &domain.Payment{
		ID:          42,
		MerchantID:  10,
		PayerUserID: 1,
		OwnerUserID: 2,
		Amount:      decimal.NewFromInt(250),
		Currency:    "USD",
		ProductID:   5,
		Status:      status,
	}
}

func statusPtr(s domain.PaymentStatus) *domain.PaymentStatus { return &s }

// ==================== Get & List ====================

func TestPaymentQuery_Get(t *testing.T) {
	svc, repo := setupPaymentQuery(t)
	ctx := context.Background()

	repo.EXPECT().GetByID(ctx, int64(42)).Return(paymentWithStatus(domain.PaymentStatusCompleted), nil)
	p, err := svc.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ID)

	repo.EXPECT().GetByID(ctx, int64(43)).Return(nil, nil)
	_, err = svc.Get(ctx, 43)
	assertAppError(t, err, "PAY_004")

	repo.EXPECT().GetByID(ctx, int64(44)).Return(nil, errors.New("pool closed"))
	_, err = svc.Get(ctx, 44)
	assertAppError(t, err, "SYS_002")
}

func TestPaymentQuery_Lists(t *testing.T) {
	svc, repo := setupPaymentQuery(t)
	ctx := context.Background()

	rows := []domain.Payment{*paymentWithStatus(domain.PaymentStatusCompleted)}
	repo.EXPECT().ListByMerchant(ctx, int64(10)).Return(rows, nil)
	repo.EXPECT().ListByUser(ctx, int64(1)).Return(nil, errors.New("timeout"))

	got, err := svc.ListByMerchant(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.ListByUser(ctx, 1)
	assertAppError(t, err, "SYS_002")
}

// ==================== Cancel ====================

func TestPaymentQuery_Cancel_Completed(t *testing.T) {
	svc, repo := setupPaymentQuery(t)

	repo.EXPECT().Cancel(gomock.Any(), int64(42)).Return(paymentWithStatus(domain.PaymentStatusCancelled), nil)

	p, err := svc.Cancel(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCancelled, p.Status)
}

func TestPaymentQuery_Cancel_IsIdempotent(t *testing.T) {
	svc, repo := setupPaymentQuery(t)
	already := paymentWithStatus(domain.PaymentStatusCancelled)

	// The conditional update matches nothing; the row is returned as is.
	repo.EXPECT().Cancel(gomock.Any(), int64(42)).Return(nil, nil).Times(2)
	repo.EXPECT().GetByID(gomock.Any(), int64(42)).Return(already, nil).Times(2)

	for i := 0; i < 2; i++ {
		p, err := svc.Cancel(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusCancelled, p.Status)
	}
}

func TestPaymentQuery_Cancel_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		current *domain.Payment
		code    string
	}{
		{"failed payment", paymentWithStatus(domain.PaymentStatusFailed), "PAY_009"},
		{"missing payment", nil, "PAY_004"},
		{"changed between statements", paymentWithStatus(domain.PaymentStatusPending), "PAY_010"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := setupPaymentQuery(t)
			repo.EXPECT().Cancel(gomock.Any(), int64(42)).Return(nil, nil)
			repo.EXPECT().GetByID(gomock.Any(), int64(42)).Return(tt.current, nil)

			_, err := svc.Cancel(context.Background(), 42)
			assertAppError(t, err, tt.code)
		})
	}
}

// ==================== UpdateFields ====================

func TestPaymentQuery_Update_PendingAmount(t *testing.T) {
	svc, repo := setupPaymentQuery(t)
	current := paymentWithStatus(domain.PaymentStatusPending)
	amount := decimal.RequireFromString("99.95")
	currency := " usd "

	repo.EXPECT().GetByID(gomock.Any(), int64(42)).Return(current, nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any(), domain.PaymentStatusPending).
		DoAndReturn(func(_ context.Context, p *domain.Payment, _ domain.PaymentStatus) (*domain.Payment, error) {
			assert.True(t, p.Amount.Equal(amount))
			assert.Equal(t, "USD", p.Currency)
			return p, nil
		})

	updated, err := svc.UpdateFields(context.Background(), 42, domain.PaymentUpdate{Amount: &amount, Currency: &currency})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(amount))
}

func TestPaymentQuery_Update_Transitions(t *testing.T) {
	tests := []struct {
		from    domain.PaymentStatus
		to      domain.PaymentStatus
		allowed bool
	}{
		{domain.PaymentStatusPending, domain.PaymentStatusCompleted, false},
		{domain.PaymentStatusPending, domain.PaymentStatusFailed, true},
		{domain.PaymentStatusPending, domain.PaymentStatusCancelled, true},
		{domain.PaymentStatusCompleted, domain.PaymentStatusCancelled, true},
		{domain.PaymentStatusCompleted, domain.PaymentStatusPending, false},
		{domain.PaymentStatusCancelled, domain.PaymentStatusCompleted, false},
		{domain.PaymentStatusFailed, domain.PaymentStatusCompleted, false},
		{domain.PaymentStatusPending, domain.PaymentStatus("refunded"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			svc, repo := setupPaymentQuery(t)
			repo.EXPECT().GetByID(gomock.Any(), int64(42)).Return(paymentWithStatus(tt.from), nil)
			if tt.allowed {
				repo.EXPECT().Update(gomock.Any(), gomock.Any(), tt.from).
					DoAndReturn(func(_ context.Context, p *domain.Payment, _ domain.PaymentStatus) (*domain.Payment, error) {
						return p, nil
					})
			}

			p, err := svc.UpdateFields(context.Background(), 42, domain.PaymentUpdate{Status: statusPtr(tt.to)})
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, p.Status)
				return
			}
			assertAppError(t, err, "PAY_006")
		})
	}
}

func TestPaymentQuery_Update_AmountFrozenAfterPending(t *testing.T) {
	svc, repo := setupPaymentQuery(t)
	amount := decimal.NewFromInt(1)

	repo.EXPECT().GetByID(gomock.Any(), int64(42)).Return(paymentWithStatus(domain.PaymentStatusCompleted), nil)

	_, err := svc.UpdateFields(context.Background(), 42, domain.PaymentUpdate{Amount: &amount})
	assertAppError(t, err, "PAY_007")
}

func TestPaymentQuery_Update_ProductOnCompleted(t *testing.T) {
	svc, repo := setupPaymentQuery(t)
	product := int64(8)

	repo.EXPECT().GetByID(gomock.Any(), int64(42)).Return(paymentWithStatus(domain.PaymentStatusCompleted), nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any(), domain.PaymentStatusCompleted).
		DoAndReturn(func(_ context.Context, p *domain.Payment, _ domain.PaymentStatus) (*domain.Payment, error) {
			return p, nil
		})

	p, err := svc.UpdateFields(context.Background(), 42, domain.PaymentUpdate{ProductID: &product})
	require.NoError(t, err)
	assert.Equal(t, int64(8), p.ProductID)
}

func TestPaymentQuery_Update_Validation(t *testing.T) {
	zero := decimal.Zero
	eur := "EUR"
	negative := int64(-1)

	tests := []struct {
		name   string
		update domain.PaymentUpdate
		code   string
	}{
		{"non-positive amount", domain.PaymentUpdate{Amount: &zero}, "PAY_002"},
		{"other currency", domain.PaymentUpdate{Currency: &eur}, "PAY_003"},
		{"negative product", domain.PaymentUpdate{ProductID: &negative}, "REQ_001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := setupPaymentQuery(t)
			repo.EXPECT().GetByID(gomock.Any(), int64(42)).Return(paymentWithStatus(domain.PaymentStatusPending), nil)

			_, err := svc.UpdateFields(context.Background(), 42, tt.update)
			assertAppError(t, err, tt.code)
		})
	}

	svc, _ := setupPaymentQuery(t)
	_, err := svc.UpdateFields(context.Background(), 42, domain.PaymentUpdate{})
	assertAppError(t, err, "REQ_001")
}

func TestPaymentQuery_Update_ConcurrentChange(t *testing.T) {
	svc, repo := setupPaymentQuery(t)

	repo.EXPECT().GetByID(gomock.Any(), int64(42)).Return(paymentWithStatus(domain.PaymentStatusPending), nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any(), domain.PaymentStatusPending).Return(nil, nil)

	_, err := svc.UpdateFields(context.Background(), 42, domain.PaymentUpdate{Status: statusPtr(domain.PaymentStatusCompleted)})
	assertAppError(t, err, "PAY_010")
}

// ==================== Delete ====================

func TestPaymentQuery_Delete(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.PaymentStatus
		deleted bool
		code    string
	}{
		{"pending", domain.PaymentStatusPending, true, ""},
		{"failed", domain.PaymentStatusFailed, true, ""},
		{"completed moved money", domain.PaymentStatusCompleted, false, "PAY_008"},
		{"cancelled moved money", domain.PaymentStatusCancelled, false, "PAY_008"},
		{"changed between statements", domain.PaymentStatusPending, false, "PAY_008"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := setupPaymentQuery(t)
			current := paymentWithStatus(tt.status)
			repo.EXPECT().GetByID(gomock.Any(), int64(42)).Return(current, nil)
			if current.IsDeletable() {
				repo.EXPECT().Delete(gomock.Any(), int64(42)).Return(tt.deleted, nil)
			}

			err := svc.Delete(context.Background(), 42)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assertAppError(t, err, tt.code)
		})
	}
}

// ==================== Against the in-memory store ====================

func TestPaymentQuery_CancelAfterSettlement(t *testing.T) {
	f := newSettlementFixture(t, true, "1000")
	svc := NewPaymentQueryService(memPaymentRepo{f.store}, "USD", newTestLogger())
	ctx := context.Background()

	payment, err := f.engine.Settle(ctx, settleReq("250", ""))
	require.NoError(t, err)

	first, err := svc.Cancel(ctx, payment.ID)
	require.NoError(t, err)
	second, err := svc.Cancel(ctx, payment.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusCancelled, first.Status)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt, "second cancel must not change the row")
	// Cancellation does not reverse balances.
	assertBalance(t, f.store, payerID, "750")
	assertBalance(t, f.store, ownerID, "250")

	err = svc.Delete(ctx, payment.ID)
	assertAppError(t, err, "PAY_008")
}
