package messaging

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrTopicRequired is returned when Publish is called without a topic.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrClosed is returned when publishing on a closed publisher.
	ErrClosed = errors.New("messaging: publisher is closed")
)

// Publisher sends messages to a destination topic/subject.
type Publisher interface {
	io.Closer

	Publish(ctx context.Context, topic string, msg Message) error
}

// Message is a broker-agnostic outgoing message.
type Message struct {
	// Key is used for partitioning (Kafka) and ordering (Pub/Sub).
	Key string
	// Body is the payload, JSON encoded by callers.
	Body []byte
	// Attributes map to headers on brokers that support them.
	Attributes map[string]string
}

func validate(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	return nil
}
