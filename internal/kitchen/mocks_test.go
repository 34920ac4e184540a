package kitchen

import (
	"context"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
)

// MockSnapshotRepo is a test mock for SnapshotRepo
type MockSnapshotRepo struct {
	mu         sync.Mutex
	snapshots  map[uuid.UUID]Snapshot
	upserts    int
	GetFunc    func(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	UpsertFunc func(ctx context.Context, s *Snapshot) error
}

func NewMockSnapshotRepo() *MockSnapshotRepo {
	return &MockSnapshotRepo{snapshots: make(map[uuid.UUID]Snapshot)}
}

func (m *MockSnapshotRepo) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[id]
	if !ok {
		return nil, core.NotFound("kitchen snapshot", id)
	}
	return &s, nil
}

func (m *MockSnapshotRepo) Upsert(ctx context.Context, s *Snapshot) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	m.snapshots[s.RestaurantID] = *s
	return nil
}

func (m *MockSnapshotRepo) Upserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

type servedSample struct {
	minutes  int
	servedAt time.Time
}

// MockOrderStats is a test mock for OrderStats
type MockOrderStats struct {
	mu        sync.Mutex
	active    map[uuid.UUID]int
	served    map[uuid.UUID][]servedSample
	CountFunc func(ctx context.Context, id uuid.UUID) (int, error)
	lastLimit int
}

func NewMockOrderStats() *MockOrderStats {
	return &MockOrderStats{
		active: make(map[uuid.UUID]int),
		served: make(map[uuid.UUID][]servedSample),
	}
}

func (m *MockOrderStats) CountActive(ctx context.Context, id uuid.UUID) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, id)
	}
	return m.active[id], nil
}

// RecentPrepMinutes expects samples to be registered newest first.
func (m *MockOrderStats) RecentPrepMinutes(ctx context.Context, id uuid.UUID, since time.Time, limit int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	var out []int
	for _, s := range m.served[id] {
		if s.servedAt.Before(since) {
			continue
		}
		out = append(out, s.minutes)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type MockTransactor struct {
	mu    sync.Mutex
	Calls int
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	return fn(ctx)
}

type MockPublisher struct {
	mu       sync.Mutex
	Messages map[string][][]byte
}

var _ events.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages[topic] = append(m.Messages[topic], msg)
	return nil
}

type MockSubscriber struct {
	handlers map[string]events.HandlerFunc
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{handlers: make(map[string]events.HandlerFunc)}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	m.handlers[topic] = handler
	return nil
}

func (m *MockSubscriber) Deliver(ctx context.Context, topic string, msg []byte) error {
	h, ok := m.handlers[topic]
	if !ok {
		return nil
	}
	return h(ctx, msg)
}
