package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-settlement/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	entry := &domain.AuditLog{
		ID:           uuid.New(),
		UserID:       int64Ptr(9),
		Action:       domain.AuditActionSettle,
		ResourceType: "payment",
		ResourceID:   "11",
		Details:      `{"status":201}`,
		IPAddress:    "10.0.0.1",
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(entry.ID, entry.UserID, "SETTLE", "payment", "11", `{"status":201}`, "10.0.0.1", entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_Create_EmptyDetailsIsNull(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	entry := &domain.AuditLog{ID: uuid.New(), Action: domain.AuditActionLogin, ResourceType: "session", CreatedAt: time.Now().UTC()}

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(entry.ID, entry.UserID, "LOGIN", "session", "", nil, "", entry.CreatedAt).
		WillReturnError(errors.New("relation does not exist"))

	err = repo.Create(context.Background(), entry)
	assert.ErrorContains(t, err, "insert audit log")
}
