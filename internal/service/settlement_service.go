package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"wallet-settlement/config"
	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"
	"wallet-settlement/pkg/apperror"
	"wallet-settlement/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// rollbackTimeout bounds a rollback issued after the request context is gone.
const rollbackTimeout = 5 * time.Second

// SettlementEngine implements ports.SettlementService. It is the only writer
// of wallet balances.
type SettlementEngine struct {
	userRepo    ports.UserRepository
	walletRepo  ports.WalletRepository
	paymentRepo ports.PaymentRepository
	resolver    ports.AccountResolver
	idempCache  ports.IdempotencyCache
	transactor  ports.DBTransactor
	auditSvc    ports.AuditService
	cfg         config.SettlementConfig
	log         zerolog.Logger
	now         func() time.Time
}

// NewSettlementEngine creates a new SettlementEngine.
func NewSettlementEngine(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	paymentRepo ports.PaymentRepository,
	resolver ports.AccountResolver,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	auditSvc ports.AuditService,
	cfg config.SettlementConfig,
	log zerolog.Logger,
) *SettlementEngine {
	return &SettlementEngine{
		userRepo:    userRepo,
		walletRepo:  walletRepo,
		paymentRepo: paymentRepo,
		resolver:    resolver,
		idempCache:  idempCache,
		transactor:  transactor,
		auditSvc:    auditSvc,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

// Settle moves req.Amount from the payer's wallet to the wallet of the
// merchant's owner and records a completed payment. Either all three writes
// commit or none do.
func (s *SettlementEngine) Settle(ctx context.Context, req ports.SettlementRequest) (*domain.Payment, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	payer, err := s.userRepo.GetByID(ctx, req.PayerUserID)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("load payer: %w", err))
	}
	if payer == nil {
		return nil, apperror.ErrNotFound("Payer")
	}
	if !payer.CanTransact() {
		return nil, apperror.ErrUserNotVerified()
	}

	var cacheKey string
	if req.IdempotencyKey != "" {
		cacheKey = domain.BuildIdempotencyKey(req.PayerUserID, req.IdempotencyKey)
		existing, err := s.findSettled(ctx, cacheKey, req)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if !sameSettlement(existing, req) {
				return nil, apperror.ErrIdempotencyKeyReused()
			}
			s.log.Info().
				Int64("payment_id", existing.ID).
				Int64("payer_user_id", req.PayerUserID).
				Msg("settlement replayed from idempotency key")
			return existing, nil
		}
	}

	// Resolution happens before any transaction is opened.
	ownerID, err := s.resolver.ResolveOwner(ctx, req.MerchantID)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	payment, err := s.settleInTx(txCtx, req, ownerID)
	if errors.Is(err, errIdempotencyRace) {
		return s.loadRaceWinner(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	s.cacheSettled(ctx, cacheKey, payment)
	s.audit(ctx, payment)

	s.log.Info().
		Int64("payment_id", payment.ID).
		Int64("payer_user_id", payment.PayerUserID).
		Int64("owner_user_id", payment.OwnerUserID).
		Int64("merchant_id", payment.MerchantID).
		Str("amount", payment.Amount.String()).
		Msg("settlement committed")

	return payment, nil
}

// errIdempotencyRace marks a rolled-back attempt that lost a concurrent
// insert of the same (payer, key) pair.
var errIdempotencyRace = errors.New("idempotency key settled concurrently")

// settleInTx runs lock, credit, debit and insert as one transaction.
func (s *SettlementEngine) settleInTx(ctx context.Context, req ports.SettlementRequest, ownerID int64) (*domain.Payment, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, classifySettleError(fmt.Errorf("begin tx: %w", err))
	}

	payment, err := s.apply(ctx, dbTx, req, ownerID)
	if err == nil {
		if err = dbTx.Commit(ctx); err == nil {
			return payment, nil
		}
		err = fmt.Errorf("commit tx: %w", err)
	}

	if rbErr := s.rollback(ctx, dbTx, req, err); rbErr != nil {
		return nil, errors.Join(rbErr, classifySettleError(err))
	}
	if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
		return nil, errIdempotencyRace
	}
	return nil, classifySettleError(err)
}

func (s *SettlementEngine) apply(ctx context.Context, dbTx pgx.Tx, req ports.SettlementRequest, ownerID int64) (*domain.Payment, error) {
	ids := lockOrder(req.PayerUserID, ownerID)
	wallets, err := s.walletRepo.LockForUpdate(ctx, dbTx, ids)
	if err != nil {
		return nil, fmt.Errorf("lock wallets: %w", err)
	}
	if len(wallets) != len(ids) {
		return nil, apperror.ErrNotFound("Wallet")
	}

	if _, err := s.walletRepo.ApplyDelta(ctx, dbTx, ownerID, req.Amount); err != nil {
		return nil, fmt.Errorf("credit owner: %w", err)
	}

	payerBalance, err := s.walletRepo.ApplyDelta(ctx, dbTx, req.PayerUserID, req.Amount.Neg())
	if err != nil {
		return nil, fmt.Errorf("debit payer: %w", err)
	}
	if s.cfg.EnforceNonNegative && payerBalance.IsNegative() {
		return nil, apperror.ErrInsufficientFunds()
	}

	payment := &domain.Payment{
		MerchantID:  req.MerchantID,
		PayerUserID: req.PayerUserID,
		OwnerUserID: ownerID,
		Amount:      req.Amount,
		Currency:    s.cfg.Currency,
		ProductID:   req.ProductID,
		Status:      domain.PaymentStatusCompleted,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		payment.IdempotencyKey = &key
	}
	if err := s.paymentRepo.Create(ctx, dbTx, payment); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	return payment, nil
}

// rollback aborts dbTx on a context detached from the request, so a
// cancelled or timed-out request still releases its row locks.
func (s *SettlementEngine) rollback(ctx context.Context, dbTx pgx.Tx, req ports.SettlementRequest, cause error) error {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	err := dbTx.Rollback(rbCtx)
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}

	logger.Alert(s.log).
		Err(err).
		AnErr("cause", cause).
		Int64("payer_user_id", req.PayerUserID).
		Int64("merchant_id", req.MerchantID).
		Str("amount", req.Amount.String()).
		Msg("settlement rollback failed")

	payer := req.PayerUserID
	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		UserID:       &payer,
		Action:       domain.AuditActionRollbackFailure,
		ResourceType: "settlement",
		ResourceID:   strconv.FormatInt(req.MerchantID, 10),
		Details:      auditDetails(map[string]any{"amount": req.Amount.String(), "error": err.Error()}),
		CreatedAt:    s.now().UTC(),
	})

	return apperror.ErrRollbackFailed(err)
}

// findSettled looks up a payment already settled under the payer's key:
// Redis first, then the unique index in PostgreSQL.
func (s *SettlementEngine) findSettled(ctx context.Context, cacheKey string, req ports.SettlementRequest) (*domain.Payment, error) {
	cached, err := s.idempCache.Get(ctx, cacheKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", cacheKey).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return cached, nil
	}

	existing, err := s.paymentRepo.GetByIdempotencyKey(ctx, req.PayerUserID, req.IdempotencyKey)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("db idempotency check: %w", err))
	}
	return existing, nil
}

func (s *SettlementEngine) loadRaceWinner(ctx context.Context, req ports.SettlementRequest) (*domain.Payment, error) {
	winner, err := s.paymentRepo.GetByIdempotencyKey(ctx, req.PayerUserID, req.IdempotencyKey)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("load concurrent settlement: %w", err))
	}
	if winner == nil {
		return nil, apperror.ErrStoreUnavailable(errors.New("idempotency key conflict without a stored payment"))
	}
	if !sameSettlement(winner, req) {
		return nil, apperror.ErrIdempotencyKeyReused()
	}
	s.log.Info().
		Int64("payment_id", winner.ID).
		Int64("payer_user_id", req.PayerUserID).
		Msg("settlement lost idempotency race, returning winner")
	return winner, nil
}

// sameSettlement reports whether a payment stored under the request's key was
// made for the same merchant, amount, currency and product.
func sameSettlement(p *domain.Payment, req ports.SettlementRequest) bool {
	return p.MerchantID == req.MerchantID &&
		p.Amount.Equal(req.Amount) &&
		strings.EqualFold(p.Currency, req.Currency) &&
		p.ProductID == req.ProductID
}

// cacheSettled is best-effort; the unique index remains authoritative.
func (s *SettlementEngine) cacheSettled(ctx context.Context, cacheKey string, payment *domain.Payment) {
	if cacheKey == "" {
		return
	}
	if err := s.idempCache.Set(ctx, cacheKey, payment, s.cfg.IdempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache idempotency in redis")
	}
}

func (s *SettlementEngine) audit(ctx context.Context, payment *domain.Payment) {
	payer := payment.PayerUserID
	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		UserID:       &payer,
		Action:       domain.AuditActionSettle,
		ResourceType: "payment",
		ResourceID:   strconv.FormatInt(payment.ID, 10),
		Details: auditDetails(map[string]any{
			"merchant_id":   payment.MerchantID,
			"owner_user_id": payment.OwnerUserID,
			"amount":        payment.Amount.String(),
			"currency":      payment.Currency,
		}),
		CreatedAt: s.now().UTC(),
	})
}

func (s *SettlementEngine) validate(req ports.SettlementRequest) error {
	if !req.Amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if req.PayerUserID <= 0 || req.MerchantID <= 0 {
		return apperror.Validation("payer and merchant ids must be positive")
	}
	if req.ProductID < 0 {
		return apperror.Validation("product id must not be negative")
	}
	if !strings.EqualFold(req.Currency, s.cfg.Currency) {
		return apperror.ErrUnsupportedCurrency(req.Currency)
	}
	if len(req.IdempotencyKey) > domain.MaxIdempotencyKeyLength {
		return apperror.Validation(fmt.Sprintf("idempotency key exceeds %d characters", domain.MaxIdempotencyKeyLength))
	}
	return nil
}

// classifySettleError maps a failure inside the settlement transaction to
// the closed error kinds. AppErrors raised by the engine pass through.
func classifySettleError(err error) error {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, domain.ErrWalletNotFound):
		return apperror.ErrNotFound("Wallet")
	case errors.Is(err, domain.ErrAmountNotPositive):
		return apperror.ErrInvalidAmount()
	default:
		return apperror.ErrStoreUnavailable(err)
	}
}

// lockOrder returns the distinct user ids in ascending order, the order in
// which wallet rows are locked.
func lockOrder(ids ...int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func auditDetails(fields map[string]any) string {
	data, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(data)
}
