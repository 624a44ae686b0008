package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

const merchantColumns = `id, name, owner_user_id, created_at`

var _ ports.MerchantRepository = (*MerchantRepo)(nil)

// MerchantRepo stores merchants and their owning user. A NULL owner marks
// an unlinked merchant that cannot receive settlements.
type MerchantRepo struct {
	pool Pool
}

func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO merchants (name, owner_user_id) VALUES ($1, $2) RETURNING id, created_at`,
		m.Name, m.OwnerUserID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when no merchant has the id.
func (r *MerchantRepo) GetByID(ctx context.Context, id int64) (*domain.Merchant, error) {
	var m domain.Merchant
	err := r.pool.QueryRow(ctx, `SELECT `+merchantColumns+` FROM merchants WHERE id = $1`, id).
		Scan(merchantFields(&m)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get merchant %d: %w", id, err)
	}
	return &m, nil
}

// ListByOwner returns the user's merchants in creation order.
func (r *MerchantRepo) ListByOwner(ctx context.Context, ownerUserID int64) ([]domain.Merchant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE owner_user_id = $1 ORDER BY id`, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("list merchants: %w", err)
	}
	defer rows.Close()

	merchants := make([]domain.Merchant, 0)
	for rows.Next() {
		var m domain.Merchant
		if err := rows.Scan(merchantFields(&m)...); err != nil {
			return nil, fmt.Errorf("scan merchant row: %w", err)
		}
		merchants = append(merchants, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merchant rows: %w", err)
	}
	return merchants, nil
}

func merchantFields(m *domain.Merchant) []any {
	return []any{&m.ID, &m.Name, &m.OwnerUserID, &m.CreatedAt}
}
