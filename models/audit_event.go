package models

import "time"

type AuditAction string

const (
	AuditApprove AuditAction = "approve"
	AuditRevoke  AuditAction = "revoke"
	AuditTrial   AuditAction = "trial"
)

// AuditEvent is one lifecycle change of an access record.
type AuditEvent struct {
	ID        string      `json:"id"`
	Action    AuditAction `json:"action"`
	UserEmail string      `json:"user_email"`
	TokenHint string      `json:"token_hint"`
	CreatedAt time.Time   `json:"created_at"`
}
