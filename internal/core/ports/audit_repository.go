package ports

import (
	"context"

	"github.com/onhs/olms/internal/core/domain"
)

// AuditRepository persists sealed audit events.
type AuditRepository interface {
	Record(ctx context.Context, event *domain.AuditEvent) error
}

// AuditSink accepts events for asynchronous persistence. Submit must not
// block the caller on storage I/O.
type AuditSink interface {
	Submit(event *domain.AuditEvent)
}
