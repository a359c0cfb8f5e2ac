package messaging

import (
	"context"
	"log/slog"
)

// Log publishes by writing one structured log line per message.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a log publisher. A nil logger uses slog.Default.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}

	return &Log{logger: logger}
}

func (l *Log) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validate(ctx, topic); err != nil {
		return err
	}

	attrs := []any{"topic", topic, "key", msg.Key, "body", string(msg.Body)}
	for k, v := range msg.Attributes {
		attrs = append(attrs, k, v)
	}
	l.logger.InfoContext(ctx, "event published", attrs...)

	return nil
}

func (l *Log) Close() error { return nil }
