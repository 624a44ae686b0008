package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"wallet-settlement/config"
	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"
	"wallet-settlement/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	codeLength    = 6
	smsAlphabet   = "0123456789"
	emailAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var _ ports.VerificationService = (*VerificationRegistry)(nil)

// VerificationRegistry implements ports.VerificationService. Each subject has
// at most one live record per channel; issuing again replaces it.
type VerificationRegistry struct {
	repo     ports.VerificationRepository
	hasher   ports.CodeHasher
	cooldown ports.CooldownStore
	gateway  ports.NotificationGateway
	cfg      config.VerificationConfig
	log      zerolog.Logger
	now      func() time.Time
	newCode  func(channel domain.Channel) (string, error)
}

// NewVerificationRegistry creates a new VerificationRegistry.
func NewVerificationRegistry(
	repo ports.VerificationRepository,
	hasher ports.CodeHasher,
	cooldown ports.CooldownStore,
	gateway ports.NotificationGateway,
	cfg config.VerificationConfig,
	log zerolog.Logger,
) *VerificationRegistry {
	return &VerificationRegistry{
		repo:     repo,
		hasher:   hasher,
		cooldown: cooldown,
		gateway:  gateway,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		newCode:  generateCode,
	}
}

// Issue creates a fresh code for subject, stores its hash and dispatches it.
// A dispatch failure keeps the record: the result is returned together with
// a DELIVERY_FAILED error so the caller may retry delivery after the cooldown.
func (s *VerificationRegistry) Issue(ctx context.Context, channel domain.Channel, subject string) (*domain.IssueResult, error) {
	if !channel.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown channel %q", channel))
	}
	subject = normalizeSubject(channel, subject)
	if subject == "" {
		return nil, apperror.Validation("subject is required")
	}

	cooldownKey := string(channel) + ":" + subject
	if s.cfg.ResendCooldown > 0 {
		acquired, err := s.cooldown.Acquire(ctx, cooldownKey, s.cfg.ResendCooldown)
		if err != nil {
			s.log.Warn().Err(err).Str("channel", string(channel)).Msg("cooldown check failed, issuing anyway")
		} else if !acquired {
			return nil, apperror.ErrResendTooSoon()
		}
	}

	code, err := s.newCode(channel)
	if err != nil {
		s.releaseCooldown(ctx, cooldownKey)
		return nil, apperror.InternalError(fmt.Errorf("generate code: %w", err))
	}

	record := &domain.VerificationRecord{
		Subject:   subject,
		Channel:   channel,
		CodeHash:  s.hasher.Hash(subject, code),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		s.releaseCooldown(ctx, cooldownKey)
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("store verification record: %w", err))
	}

	result := &domain.IssueResult{
		Subject:   subject,
		Channel:   channel,
		Code:      code,
		ExpiresAt: record.ExpiresAt(s.window(channel)),
	}

	if err := s.dispatch(ctx, channel, subject, code); err != nil {
		s.releaseCooldown(ctx, cooldownKey)
		s.log.Error().Err(err).Str("channel", string(channel)).Msg("verification code delivery failed")
		return result, apperror.ErrDeliveryFailed(err)
	}

	s.log.Info().Str("channel", string(channel)).Time("expires_at", result.ExpiresAt).Msg("verification code issued")
	return result, nil
}

// Verify checks code against the live record for subject and consumes it.
// A correct code that was already used is reported as consumed, not as a mismatch.
func (s *VerificationRegistry) Verify(ctx context.Context, channel domain.Channel, subject string, code string) (*domain.VerifiedOutcome, error) {
	if !channel.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown channel %q", channel))
	}
	subject = normalizeSubject(channel, subject)

	record, err := s.repo.Get(ctx, channel, subject)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("load verification record: %w", err))
	}
	if record == nil {
		return nil, apperror.ErrCodeNotFound()
	}

	now := s.now().UTC()
	if record.IsExpired(now, s.window(channel)) {
		return nil, apperror.ErrCodeExpired()
	}
	if !s.hasher.Verify(subject, normalizeCode(channel, code), record.CodeHash) {
		return nil, apperror.ErrCodeMismatch()
	}
	if record.Consumed {
		return nil, apperror.ErrCodeConsumed()
	}

	consumed, err := s.repo.MarkConsumed(ctx, record.ID, record.CodeHash, now)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("consume verification record: %w", err))
	}
	if !consumed {
		return nil, apperror.ErrCodeConsumed()
	}

	s.log.Info().Str("channel", string(channel)).Int64("record_id", record.ID).Msg("verification code consumed")
	return &domain.VerifiedOutcome{Subject: subject, Channel: channel, VerifiedAt: now}, nil
}

// RequireConsumed fails unless subject has a successfully verified code.
func (s *VerificationRegistry) RequireConsumed(ctx context.Context, channel domain.Channel, subject string) error {
	record, err := s.repo.Get(ctx, channel, normalizeSubject(channel, subject))
	if err != nil {
		return apperror.ErrStoreUnavailable(fmt.Errorf("load verification record: %w", err))
	}
	if record == nil || !record.Consumed {
		return apperror.ErrNotVerified()
	}
	return nil
}

func (s *VerificationRegistry) window(channel domain.Channel) time.Duration {
	if channel == domain.ChannelEmail {
		return s.cfg.EmailTTL
	}
	return s.cfg.SMSTTL
}

func (s *VerificationRegistry) dispatch(ctx context.Context, channel domain.Channel, subject, code string) error {
	switch channel {
	case domain.ChannelSMS:
		return s.gateway.SendSMS(ctx, subject, fmt.Sprintf("Your verification code is %s", code))
	case domain.ChannelEmail:
		body := fmt.Sprintf("Your email verification code is %s. It expires in %s.", code, s.cfg.EmailTTL)
		return s.gateway.SendEmail(ctx, subject, "Verify your email address", body)
	}
	return errors.New("unsupported channel")
}

func (s *VerificationRegistry) releaseCooldown(ctx context.Context, key string) {
	if s.cfg.ResendCooldown <= 0 {
		return
	}
	if err := s.cooldown.Release(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn().Err(err).Msg("failed to release verification cooldown")
	}
}

func normalizeSubject(channel domain.Channel, subject string) string {
	subject = strings.TrimSpace(subject)
	if channel == domain.ChannelEmail {
		return strings.ToLower(subject)
	}
	return subject
}

// normalizeCode accepts email codes typed in lower case.
func normalizeCode(channel domain.Channel, code string) string {
	code = strings.TrimSpace(code)
	if channel == domain.ChannelEmail {
		return strings.ToUpper(code)
	}
	return code
}

// generateCode returns a 6-digit code for SMS and 6 upper-case alphanumerics for email.
func generateCode(channel domain.Channel) (string, error) {
	alphabet := smsAlphabet
	if channel == domain.ChannelEmail {
		alphabet = emailAlphabet
	}
	limit := big.NewInt(int64(len(alphabet)))

	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}
