package pkg

import (
	"context"
	"sync"
)

// NoopPublisher discards events. It backs events.driver=none.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}

type PublishedMessage struct {
	Topic string
	Data  []byte
}

// MemoryPublisher records published events in memory.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, PublishedMessage{Topic: topic, Data: append([]byte(nil), msg...)})
	return nil
}

func (p *MemoryPublisher) Messages() []PublishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

func (p *MemoryPublisher) Close() error {
	return nil
}
