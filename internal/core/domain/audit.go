package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionSettle          AuditAction = "SETTLE"
	AuditActionUpdatePayment   AuditAction = "UPDATE_PAYMENT"
	AuditActionCancelPayment   AuditAction = "CANCEL_PAYMENT"
	AuditActionDeletePayment   AuditAction = "DELETE_PAYMENT"
	AuditActionRegister        AuditAction = "REGISTER"
	AuditActionLogin           AuditAction = "LOGIN"
	AuditActionIssueCode       AuditAction = "ISSUE_CODE"
	AuditActionVerifyCode      AuditAction = "VERIFY_CODE"
	AuditActionCreateMerchant  AuditAction = "CREATE_MERCHANT"
	AuditActionUpdateProfile   AuditAction = "UPDATE_PROFILE"
	AuditActionChangePassword  AuditAction = "CHANGE_PASSWORD"
	AuditActionRollbackFailure AuditAction = "ROLLBACK_FAILURE"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	UserID       *int64      `json:"user_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
