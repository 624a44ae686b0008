package service

import (
	"context"
	"io"
	"testing"

	"wallet-settlement/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// mockTx implements pgx.Tx for testing. Only Commit and Rollback are
// implemented; repositories are mocked so nothing else is called.
type mockTx struct {
	pgx.Tx
	commitErr   error
	rollbackErr error
	committed   bool
	rolledBack  bool
}

func (m *mockTx) Commit(_ context.Context) error {
	m.committed = true
	return m.commitErr
}

func (m *mockTx) Rollback(_ context.Context) error {
	if m.committed && m.commitErr == nil {
		return pgx.ErrTxClosed
	}
	m.rolledBack = true
	return m.rollbackErr
}

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
