package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-settlement/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const paymentColumns = `id, merchant_id, payer_user_id, owner_user_id, amount, currency, product_id,
	status, idempotency_key, created_at, updated_at`

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Create inserts a payment within a database transaction and fills in the generated ID and timestamps.
func (r *PaymentRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	query := `INSERT INTO payments (merchant_id, payer_user_id, owner_user_id, amount, currency, product_id, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := tx.QueryRow(ctx, query,
		p.MerchantID, p.PayerUserID, p.OwnerUserID, p.Amount,
		p.Currency, p.ProductID, p.Status, p.IdempotencyKey,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", paymentConstraintError(err))
	}
	return nil
}

// GetByID fetches a payment by ID.
func (r *PaymentRepo) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.scanPayment(r.pool.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey fetches the payment a payer settled under a client key.
func (r *PaymentRepo) GetByIdempotencyKey(ctx context.Context, payerUserID int64, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payer_user_id = $1 AND idempotency_key = $2`
	return r.scanPayment(r.pool.QueryRow(ctx, query, payerUserID, key))
}

// ListByMerchant returns the payments made to a merchant, newest first.
func (r *PaymentRepo) ListByMerchant(ctx context.Context, merchantID int64) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE merchant_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, merchantID)
}

// ListByUser returns the payments a user made, newest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payer_user_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, userID)
}

// Update writes amount, currency, product and status if the row still has expectedStatus.
func (r *PaymentRepo) Update(ctx context.Context, p *domain.Payment, expectedStatus domain.PaymentStatus) (*domain.Payment, error) {
	query := `UPDATE payments SET amount = $1, currency = $2, product_id = $3, status = $4, updated_at = NOW()
		WHERE id = $5 AND status = $6
		RETURNING ` + paymentColumns

	updated, err := r.scanPayment(r.pool.QueryRow(ctx, query,
		p.Amount, p.Currency, p.ProductID, p.Status, p.ID, expectedStatus,
	))
	if err != nil {
		return nil, paymentConstraintError(err)
	}
	return updated, nil
}

// Cancel sets a completed or pending payment to cancelled. Balances are not reversed.
func (r *PaymentRepo) Cancel(ctx context.Context, id int64) (*domain.Payment, error) {
	query := `UPDATE payments SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status IN ($3, $4)
		RETURNING ` + paymentColumns

	return r.scanPayment(r.pool.QueryRow(ctx, query,
		domain.PaymentStatusCancelled, id, domain.PaymentStatusCompleted, domain.PaymentStatusPending,
	))
}

// Delete removes a payment that never moved money.
func (r *PaymentRepo) Delete(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM payments WHERE id = $1 AND status IN ($2, $3)`

	tag, err := r.pool.Exec(ctx, query, id, domain.PaymentStatusPending, domain.PaymentStatusFailed)
	if err != nil {
		return false, fmt.Errorf("delete payment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PaymentRepo) list(ctx context.Context, query string, arg int64) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(paymentFields(&p)...); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}
	return payments, nil
}

// scanPayment is a helper to scan a single row into a Payment.
func (r *PaymentRepo) scanPayment(row pgx.Row) (*domain.Payment, error) {
	p := &domain.Payment{}
	if err := row.Scan(paymentFields(p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return p, nil
}

// paymentConstraintError keeps err in the chain and adds the matching domain sentinel.
func paymentConstraintError(err error) error {
	switch {
	case IsUniqueViolation(err, ConstraintPaymentIdempotency):
		return fmt.Errorf("%w: %w", domain.ErrDuplicateIdempotencyKey, err)
	case IsCheckViolation(err, ConstraintPaymentAmount):
		return fmt.Errorf("%w: %w", domain.ErrAmountNotPositive, err)
	}
	return err
}

func paymentFields(p *domain.Payment) []any {
	return []any{
		&p.ID, &p.MerchantID, &p.PayerUserID, &p.OwnerUserID, &p.Amount, &p.Currency,
		&p.ProductID, &p.Status, &p.IdempotencyKey, &p.CreatedAt, &p.UpdatedAt,
	}
}
