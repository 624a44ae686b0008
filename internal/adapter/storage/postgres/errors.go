package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the services react to.
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

// Constraint names declared in schema.sql.
const (
	ConstraintPaymentIdempotency = "payments_payer_idempotency_key"
	ConstraintUsersUsername      = "users_username_key"
	ConstraintUsersEmail         = "users_email_key"
	ConstraintUsersPhone         = "users_phone_number_key"
	ConstraintPaymentAmount      = "payments_amount_positive"
)

// IsUniqueViolation reports whether err is a unique violation, optionally of
// a specific constraint (empty matches any).
func IsUniqueViolation(err error, constraint string) bool {
	return isPgError(err, codeUniqueViolation, constraint)
}

// IsCheckViolation reports whether err is a CHECK constraint violation.
func IsCheckViolation(err error, constraint string) bool {
	return isPgError(err, codeCheckViolation, constraint)
}

func isPgError(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
