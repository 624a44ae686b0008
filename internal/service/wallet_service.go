package service

import (
	"context"

	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"
	"wallet-settlement/pkg/apperror"
)

// walletService implements ports.WalletService.
type walletService struct {
	walletRepo ports.WalletRepository
}

// NewWalletService creates the read side of wallets.
func NewWalletService(walletRepo ports.WalletRepository) ports.WalletService {
	return &walletService{walletRepo: walletRepo}
}

// Balance returns the user's wallet without taking a row lock.
func (s *walletService) Balance(ctx context.Context, userID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	return wallet, nil
}
