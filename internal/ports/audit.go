package ports

import "github.com/google/uuid"

// AuditEntry is one security-relevant decision or event before storage.
type AuditEntry struct {
	Action     string
	TargetType string
	TargetID   string
	ActorID    *uuid.UUID
	Meta       map[string]any
	IPAddress  string
	UserAgent  string
}

// AuditRecorder appends entries best-effort. Record never blocks the
// operation it documents and never returns an error; a failed audit write
// is logged and swallowed, not propagated.
type AuditRecorder interface {
	Record(entry AuditEntry)
}
