package types

import "time"

// Audit actions emitted by the portal.
const (
	AuditLoginSucceeded   = "login_succeeded"
	AuditLoginFailed      = "login_failed"
	AuditPasswordChanged  = "password_changed"
	AuditUserRegistered   = "user_registered"
	AuditExportDownloaded = "export_downloaded"
)

// AuditEvent records a security-relevant portal operation. Events are
// published best-effort; losing one never fails the operation itself.
type AuditEvent struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Username   string    `json:"username"`
	Subject    string    `json:"subject,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
