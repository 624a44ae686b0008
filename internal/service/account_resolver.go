package service

import (
	"context"
	"fmt"

	"wallet-settlement/internal/core/ports"
	"wallet-settlement/pkg/apperror"
)

// AccountResolverImpl implements ports.AccountResolver.
type AccountResolverImpl struct {
	merchantRepo ports.MerchantRepository
}

// NewAccountResolver creates a new AccountResolverImpl.
func NewAccountResolver(merchantRepo ports.MerchantRepository) *AccountResolverImpl {
	return &AccountResolverImpl{merchantRepo: merchantRepo}
}

// ResolveOwner returns the user whose wallet receives payments made to
// merchantID. An unknown merchant and a merchant without an owner both fail
// with MerchantUnlinked; there is no fallback payee.
func (r *AccountResolverImpl) ResolveOwner(ctx context.Context, merchantID int64) (int64, error) {
	if merchantID <= 0 {
		return 0, apperror.ErrMerchantUnlinked()
	}

	merchant, err := r.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return 0, apperror.ErrStoreUnavailable(fmt.Errorf("resolve merchant %d: %w", merchantID, err))
	}
	if merchant == nil || !merchant.IsLinked() {
		return 0, apperror.ErrMerchantUnlinked()
	}
	return *merchant.OwnerUserID, nil
}
