package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-settlement/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// VerificationRepo implements ports.VerificationRepository.
type VerificationRepo struct {
	pool Pool
}

// NewVerificationRepo creates a new VerificationRepo.
func NewVerificationRepo(pool Pool) *VerificationRepo {
	return &VerificationRepo{pool: pool}
}

// Upsert stores the record as the only live code for its channel and subject.
// A previous code is superseded and the consumed flag reset.
func (r *VerificationRepo) Upsert(ctx context.Context, rec *domain.VerificationRecord) error {
	query := `INSERT INTO verification_records (channel, subject, code_hash, created_at, consumed, consumed_at)
		VALUES ($1, $2, $3, $4, FALSE, NULL)
		ON CONFLICT (channel, subject) DO UPDATE
		SET code_hash = EXCLUDED.code_hash, created_at = EXCLUDED.created_at, consumed = FALSE, consumed_at = NULL
		RETURNING id`

	if err := r.pool.QueryRow(ctx, query, rec.Channel, rec.Subject, rec.CodeHash, rec.CreatedAt).Scan(&rec.ID); err != nil {
		return fmt.Errorf("upsert verification record: %w", err)
	}
	rec.Consumed = false
	rec.ConsumedAt = nil
	return nil
}

// Get fetches the live record for a channel and subject.
func (r *VerificationRepo) Get(ctx context.Context, channel domain.Channel, subject string) (*domain.VerificationRecord, error) {
	query := `SELECT id, channel, subject, code_hash, created_at, consumed, consumed_at
		FROM verification_records WHERE channel = $1 AND subject = $2`

	rec := &domain.VerificationRecord{}
	err := r.pool.QueryRow(ctx, query, channel, subject).Scan(
		&rec.ID, &rec.Channel, &rec.Subject, &rec.CodeHash,
		&rec.CreatedAt, &rec.Consumed, &rec.ConsumedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get verification record: %w", err)
	}
	return rec, nil
}

// MarkConsumed flips the consumed flag. The conditional update makes
// concurrent verifications of the same code succeed exactly once. Upsert keeps
// the row id, so the update also matches on the checked hash: a code that was
// superseded after it was read must not consume its replacement.
func (r *VerificationRepo) MarkConsumed(ctx context.Context, id int64, codeHash string, at time.Time) (bool, error) {
	query := `UPDATE verification_records SET consumed = TRUE, consumed_at = $1
		WHERE id = $2 AND code_hash = $3 AND consumed = FALSE`

	tag, err := r.pool.Exec(ctx, query, at, id, codeHash)
	if err != nil {
		return false, fmt.Errorf("mark verification consumed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes the record for a subject within a database transaction.
func (r *VerificationRepo) Delete(ctx context.Context, tx pgx.Tx, channel domain.Channel, subject string) error {
	query := `DELETE FROM verification_records WHERE channel = $1 AND subject = $2`

	if _, err := tx.Exec(ctx, query, channel, subject); err != nil {
		return fmt.Errorf("delete verification record: %w", err)
	}
	return nil
}
