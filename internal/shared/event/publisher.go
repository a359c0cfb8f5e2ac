package event

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/mlsgate/internal/pkg/clock"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"github.com/shandysiswandi/mlsgate/internal/pkg/messaging"
	"github.com/shandysiswandi/mlsgate/internal/pkg/uid"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

// AuditPublisher stamps audit messages and hands them to a messaging driver.
type AuditPublisher struct {
	client messaging.Publisher
	ids    uid.NumberID
	clock  clock.Clocker
	ins    instrument.Instrumentation
	topic  string
}

// NewAuditPublisher publishes to topic, or AuditDestination when empty.
func NewAuditPublisher(client messaging.Publisher, ids uid.NumberID, clk clock.Clocker,
	ins instrument.Instrumentation, topic string,
) *AuditPublisher {
	if topic == "" {
		topic = AuditDestination
	}

	return &AuditPublisher{client: client, ids: ids, clock: clk, ins: ins, topic: topic}
}

// Publish fills ID, At and CorrelationID when unset, then sends msg keyed by
// username so one user's events stay ordered on partitioned brokers.
func (p *AuditPublisher) Publish(ctx context.Context, msg AuditMessage) error {
	ctx, span := p.ins.Tracer("shared.event").Start(ctx, "PublishAudit")
	defer span.End()

	if msg.ID == 0 {
		msg.ID = p.ids.Generate()
	}
	if msg.At.IsZero() {
		msg.At = p.clock.Now().UTC()
	}
	cID := instrument.GetCorrelationID(ctx)
	if msg.CorrelationID == "" {
		msg.CorrelationID = cID
	}

	body, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := p.client.Publish(ctx, p.topic, messaging.Message{
		Key:        msg.Username,
		Body:       body,
		Attributes: map[string]string{keyOfCorrelationID: cID, "kind": msg.Kind},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
