package service

import (
	"context"
	"errors"
	"testing"

	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestWalletService_Balance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWalletRepo := mocks.NewMockWalletRepository(ctrl)
	svc := NewWalletService(mockWalletRepo)

	mockWalletRepo.EXPECT().GetByUserID(gomock.Any(), int64(1)).Return(&domain.Wallet{
		UserID:  1,
		Balance: decimal.RequireFromString("1000.50"),
	}, nil)

	wallet, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "1000.5", wallet.Balance.String())
}

func TestWalletService_Balance_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWalletRepo := mocks.NewMockWalletRepository(ctrl)
	svc := NewWalletService(mockWalletRepo)

	mockWalletRepo.EXPECT().GetByUserID(gomock.Any(), int64(1)).Return(nil, nil)

	_, err := svc.Balance(context.Background(), 1)
	assertAppError(t, err, "PAY_004")
}

func TestWalletService_Balance_StoreDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWalletRepo := mocks.NewMockWalletRepository(ctrl)
	svc := NewWalletService(mockWalletRepo)

	mockWalletRepo.EXPECT().GetByUserID(gomock.Any(), int64(1)).Return(nil, errors.New("timeout"))

	_, err := svc.Balance(context.Background(), 1)
	assertAppError(t, err, "SYS_002")
}

func TestWalletService_BalanceAfterSettlement(t *testing.T) {
	f := newSettlementFixture(t, true, "1000")
	svc := NewWalletService(memWalletRepo{f.store})

	_, err := f.engine.Settle(context.Background(), settleReq("250", ""))
	require.NoError(t, err)

	payer, err := svc.Balance(context.Background(), payerID)
	require.NoError(t, err)
	owner, err := svc.Balance(context.Background(), ownerID)
	require.NoError(t, err)
	assert.True(t, payer.Balance.Equal(decimal.NewFromInt(750)))
	assert.True(t, owner.Balance.Equal(decimal.NewFromInt(250)))
}
