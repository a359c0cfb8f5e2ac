package mq

import (
	"context"

	"github.com/shandysiswandi/mlsgate/internal/filestore/usecase"
	"github.com/shandysiswandi/mlsgate/internal/shared/event"
)

type Messaging struct {
	audit *event.AuditPublisher
}

func NewMessaging(audit *event.AuditPublisher) *Messaging {
	return &Messaging{audit: audit}
}

func (m *Messaging) PublishAudit(ctx context.Context, ev usecase.AuditEvent) error {
	return m.audit.Publish(ctx, event.AuditMessage{
		Kind:     ev.Kind,
		Username: ev.Username,
		Outcome:  ev.Outcome,
		Detail:   ev.Detail,
		Resource: ev.Resource,
	})
}
