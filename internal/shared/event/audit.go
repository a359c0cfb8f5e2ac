package event

import "time"

// AuditDestination is the default topic for audit events.
const AuditDestination string = "mlsgate_audit"

// Audit event kinds.
const (
	KindAccountProvisioned = "account.provisioned"
	KindAuthSucceeded      = "auth.succeeded"
	KindAuthRejected       = "auth.rejected"
	KindAuthLocked         = "auth.locked"
	KindLockoutReleased    = "lockout.released"
	KindFileCreated        = "file.created"
	KindFileRead           = "file.read"
	KindFileWritten        = "file.written"
	KindFileDenied         = "file.denied"
)

// AuditMessage is the wire shape of an audit event. It never carries
// passwords, hashes, second-factor secrets or file contents.
type AuditMessage struct {
	ID            int64     `json:"id"`
	Kind          string    `json:"kind"`
	Username      string    `json:"username"`
	Outcome       string    `json:"outcome,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	Resource      string    `json:"resource,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	At            time.Time `json:"at"`
}
