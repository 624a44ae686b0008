package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-settlement/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, phone_number, password_hash, verified, email_verified, created_at, updated_at`

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create inserts a user within a database transaction and fills in the generated ID and timestamps.
func (r *UserRepo) Create(ctx context.Context, tx pgx.Tx, u *domain.User) error {
	query := `INSERT INTO users (username, email, phone_number, password_hash, verified, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := tx.QueryRow(ctx, query,
		u.Username, u.Email, u.PhoneNumber, u.PasswordHash, u.Verified, u.EmailVerified,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case IsUniqueViolation(err, ConstraintUsersUsername):
			err = fmt.Errorf("%w: %w", domain.ErrDuplicateUsername, err)
		case IsUniqueViolation(err, ConstraintUsersEmail):
			err = fmt.Errorf("%w: %w", domain.ErrDuplicateEmail, err)
		case IsUniqueViolation(err, ConstraintUsersPhone):
			err = fmt.Errorf("%w: %w", domain.ErrDuplicatePhone, err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id), "get user by id")
}

// GetByEmail fetches a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email), "get user by email")
}

// GetByUsername fetches a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, username), "get user by username")
}

// GetByPhone fetches a user by phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, phone), "get user by phone")
}

// SetEmailVerified marks the user's email address as verified.
func (r *UserRepo) SetEmailVerified(ctx context.Context, id int64) error {
	query := `UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("set email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %d", id)
	}
	return nil
}

// UpdateEmail changes the user's address. The new address starts unverified.
func (r *UserRepo) UpdateEmail(ctx context.Context, id int64, email string) error {
	query := `UPDATE users SET email = $1, email_verified = FALSE, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, email, id)
	if err != nil {
		if IsUniqueViolation(err, ConstraintUsersEmail) {
			err = fmt.Errorf("%w: %w", domain.ErrDuplicateEmail, err)
		}
		return fmt.Errorf("update email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %d", id)
	}
	return nil
}

// UpdatePasswordHash stores a new bcrypt hash.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %d", id)
	}
	return nil
}

func (r *UserRepo) scanUser(row pgx.Row, op string) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PhoneNumber, &u.PasswordHash,
		&u.Verified, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
