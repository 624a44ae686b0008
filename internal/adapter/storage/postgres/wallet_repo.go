package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-settlement/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet within a database transaction.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `INSERT INTO wallets (user_id, balance) VALUES ($1, $2) RETURNING created_at, updated_at`

	if err := tx.QueryRow(ctx, query, w.UserID, w.Balance).Scan(&w.CreatedAt, &w.UpdatedAt); err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByUserID fetches a wallet by its owner (non-locking read).
func (r *WalletRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Wallet, error) {
	query := `SELECT user_id, balance, created_at, updated_at FROM wallets WHERE user_id = $1`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(&w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by user id: %w", err)
	}
	return w, nil
}

// LockForUpdate takes row locks on the wallets of userIDs with pessimistic locking.
// Rows are locked in ascending user_id order so concurrent settlements over the
// same pair of wallets cannot deadlock. This MUST be called within a transaction.
// Missing wallets are simply absent from the result.
func (r *WalletRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, userIDs []int64) ([]domain.Wallet, error) {
	query := `SELECT user_id, balance, created_at, updated_at
		FROM wallets WHERE user_id = ANY($1) ORDER BY user_id FOR UPDATE`

	rows, err := tx.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("lock wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, nil
}

// ApplyDelta adds a signed delta to the wallet balance within a transaction
// and returns the resulting balance.
func (r *WalletRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE user_id = $2 RETURNING balance`

	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, query, delta, userID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: user %d", domain.ErrWalletNotFound, userID)
		}
		return decimal.Zero, fmt.Errorf("apply wallet delta: %w", err)
	}
	return balance, nil
}
