package service

import (
	"context"
	"encoding/json"

	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"
	"wallet-settlement/pkg/logger"

	"github.com/rs/zerolog"
)

// auditTrail writes every entry to the log and, when a repository is
// configured, to the audit_logs table.
type auditTrail struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, audit entries are only logged.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditTrail{repo: repo, log: log}
}

// Log records entry without blocking the caller. Persistence outlives the
// request, so it does not use ctx cancellation.
func (s *auditTrail) Log(ctx context.Context, entry *domain.AuditLog) {
	persistCtx := context.WithoutCancel(ctx)
	go s.record(persistCtx, entry)
}

func (s *auditTrail) record(ctx context.Context, entry *domain.AuditLog) {
	s.event(entry).Msg("audit")

	if s.repo == nil {
		return
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).
			Str("action", string(entry.Action)).
			Str("resource_id", entry.ResourceID).
			Msg("failed to persist audit log")
	}
}

// event carries the entry's details, such as the amount and owner of a
// settled payment, as structured fields. Rollback failures leave balances
// unverified, so they are raised as operator alerts.
func (s *auditTrail) event(entry *domain.AuditLog) *zerolog.Event {
	var ev *zerolog.Event
	if entry.Action == domain.AuditActionRollbackFailure {
		ev = logger.Alert(s.log)
	} else {
		ev = s.log.Info()
	}

	ev = ev.Str("action", string(entry.Action)).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID)
	if entry.IPAddress != "" {
		ev = ev.Str("ip", entry.IPAddress)
	}
	if entry.UserID != nil {
		ev = ev.Int64("user_id", *entry.UserID)
	}
	if entry.Details != "" && json.Valid([]byte(entry.Details)) {
		ev = ev.RawJSON("details", []byte(entry.Details))
	}
	return ev
}
