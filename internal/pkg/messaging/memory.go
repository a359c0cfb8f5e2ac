package messaging

import (
	"context"
	"slices"
	"sync"
)

// Published is a message recorded by Memory.
type Published struct {
	Topic   string
	Message Message
}

// Memory records published messages. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	msgs   []Published
	closed bool
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validate(ctx, topic); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	msg.Body = slices.Clone(msg.Body)
	m.msgs = append(m.msgs, Published{Topic: topic, Message: msg})

	return nil
}

// Messages returns a snapshot of everything published so far.
func (m *Memory) Messages() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.msgs)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	return nil
}
