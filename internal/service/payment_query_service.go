package service

import (
	"context"
	"errors"
	"strings"

	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"
	"wallet-settlement/pkg/apperror"

	"github.com/rs/zerolog"
)

// paymentQueryService implements ports.PaymentQueryService. Edits go through
// conditional updates keyed on the status that was read, so a concurrent
// change is reported instead of overwritten.
type paymentQueryService struct {
	paymentRepo ports.PaymentRepository
	currency    string
	log         zerolog.Logger
}

// NewPaymentQueryService creates the read and edit side of payment records.
func NewPaymentQueryService(paymentRepo ports.PaymentRepository, currency string, log zerolog.Logger) ports.PaymentQueryService {
	return &paymentQueryService{
		paymentRepo: paymentRepo,
		currency:    strings.ToUpper(currency),
		log:         log,
	}
}

func (s *paymentQueryService) ListByMerchant(ctx context.Context, merchantID int64) ([]domain.Payment, error) {
	payments, err := s.paymentRepo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	return payments, nil
}

func (s *paymentQueryService) ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	return payments, nil
}

func (s *paymentQueryService) Get(ctx context.Context, id int64) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	if payment == nil {
		return nil, apperror.ErrNotFound("Payment")
	}
	return payment, nil
}

// UpdateFields edits a single payment. Amount and currency are frozen once
// the payment has left pending; status follows the transition table.
func (s *paymentQueryService) UpdateFields(ctx context.Context, id int64, update domain.PaymentUpdate) (*domain.Payment, error) {
	if update.IsEmpty() {
		return nil, apperror.Validation("at least one field must be provided")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if (update.Amount != nil || update.Currency != nil) && !current.IsEditable() {
		return nil, apperror.ErrPaymentImmutable()
	}
	if update.Amount != nil && !update.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if update.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*update.Currency))
		if currency != s.currency {
			return nil, apperror.ErrUnsupportedCurrency(*update.Currency)
		}
		update.Currency = &currency
	}
	if update.ProductID != nil && *update.ProductID < 0 {
		return nil, apperror.Validation("product id must not be negative")
	}
	if update.Status != nil {
		next := *update.Status
		if !next.Valid() || !current.Status.CanTransition(next) {
			return nil, apperror.ErrInvalidStatusTransition(string(current.Status), string(next))
		}
	}

	edited := update.Apply(*current)
	updated, err := s.paymentRepo.Update(ctx, &edited, current.Status)
	if err != nil {
		if errors.Is(err, domain.ErrAmountNotPositive) {
			return nil, apperror.ErrInvalidAmount()
		}
		return nil, apperror.ErrStoreUnavailable(err)
	}
	if updated == nil {
		return nil, apperror.ErrConcurrentModification()
	}

	s.log.Info().
		Int64("payment_id", updated.ID).
		Str("from_status", string(current.Status)).
		Str("status", string(updated.Status)).
		Msg("payment updated")

	return updated, nil
}

// Cancel moves a completed or pending payment to cancelled. Cancelling an
// already cancelled payment returns it unchanged. Balances are not reversed.
func (s *paymentQueryService) Cancel(ctx context.Context, id int64) (*domain.Payment, error) {
	cancelled, err := s.paymentRepo.Cancel(ctx, id)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	if cancelled != nil {
		s.log.Info().Int64("payment_id", id).Msg("payment cancelled")
		return cancelled, nil
	}

	// No row was in a cancellable status; find out why.
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch current.Status {
	case domain.PaymentStatusCancelled:
		return current, nil
	case domain.PaymentStatusFailed:
		return nil, apperror.ErrPaymentNotCancellable()
	default:
		return nil, apperror.ErrConcurrentModification()
	}
}

// Delete removes a payment that never moved money.
func (s *paymentQueryService) Delete(ctx context.Context, id int64) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !current.IsDeletable() {
		return apperror.ErrPaymentNotDeletable()
	}

	deleted, err := s.paymentRepo.Delete(ctx, id)
	if err != nil {
		return apperror.ErrStoreUnavailable(err)
	}
	if !deleted {
		return apperror.ErrPaymentNotDeletable()
	}

	s.log.Info().Int64("payment_id", id).Str("status", string(current.Status)).Msg("payment deleted")
	return nil
}
