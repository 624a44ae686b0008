package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"
	"wallet-settlement/pkg/apperror"

	"github.com/rs/zerolog"
)

const maxMerchantNameLength = 255

type merchantService struct {
	merchantRepo ports.MerchantRepository
	userRepo     ports.UserRepository
	log          zerolog.Logger
}

// NewMerchantService creates a new merchant management service.
func NewMerchantService(
	merchantRepo ports.MerchantRepository,
	userRepo ports.UserRepository,
	log zerolog.Logger,
) ports.MerchantService {
	return &merchantService{
		merchantRepo: merchantRepo,
		userRepo:     userRepo,
		log:          log,
	}
}

// Create registers a merchant whose payments settle into ownerUserID's wallet.
func (s *merchantService) Create(ctx context.Context, ownerUserID int64, name string) (*domain.Merchant, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxMerchantNameLength {
		return nil, apperror.Validation("merchant name must be 1-255 characters")
	}

	owner, err := s.userRepo.GetByID(ctx, ownerUserID)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	if owner == nil {
		return nil, apperror.ErrNotFound("User")
	}

	merchant := &domain.Merchant{Name: name, OwnerUserID: &ownerUserID}
	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}

	s.log.Info().Int64("merchant_id", merchant.ID).Int64("owner_user_id", ownerUserID).Msg("merchant created")
	return merchant, nil
}

func (s *merchantService) Get(ctx context.Context, id int64) (*domain.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}
	return merchant, nil
}

func (s *merchantService) ListByOwner(ctx context.Context, ownerUserID int64) ([]domain.Merchant, error) {
	merchants, err := s.merchantRepo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	return merchants, nil
}
