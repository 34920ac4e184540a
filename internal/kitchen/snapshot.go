package kitchen

import (
	"context"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
)

// Snapshot is the cached kitchen load of one restaurant. It is derived
// from order history and can always be rebuilt.
type Snapshot struct {
	RestaurantID   uuid.UUID `json:"restaurant_id"`
	CurrentOrders  int       `json:"current_orders"`
	AvgPrepMinutes int       `json:"average_preparation_minutes"`
	SampleCount    int       `json:"sample_count"`
	LastUpdated    time.Time `json:"last_updated"`
}

func (s *Snapshot) GetID() uuid.UUID {
	return s.RestaurantID
}

func (s *Snapshot) ResourceType() string {
	return "kitchen-load"
}

// SnapshotRepo stores one snapshot row per restaurant. Get returns
// core.ErrNotFound when the restaurant has none yet.
type SnapshotRepo interface {
	Get(ctx context.Context, restaurantID uuid.UUID) (*Snapshot, error)
	Upsert(ctx context.Context, s *Snapshot) error
}

// OrderStats exposes the order aggregates the estimator needs.
type OrderStats interface {
	CountActive(ctx context.Context, restaurantID uuid.UUID) (int, error)
	// RecentPrepMinutes returns actual preparation minutes of orders served
	// at or after since, newest first, at most limit values.
	RecentPrepMinutes(ctx context.Context, restaurantID uuid.UUID, since time.Time, limit int) ([]int, error)
}

type Policy struct {
	DefaultPrepMinutes int
	SampleCap          int
	Window             time.Duration
	Parallelism        int
	WarmConcurrency    int
}

func DefaultPolicy() Policy {
	return Policy{
		DefaultPrepMinutes: 15,
		SampleCap:          50,
		Window:             24 * time.Hour,
		Parallelism:        4,
		WarmConcurrency:    4,
	}
}

func PolicyFromConfig(config *aqm.Config) Policy {
	def := DefaultPolicy()
	p := Policy{
		DefaultPrepMinutes: core.IntOrDef(config, "kitchen.default_prep_minutes", def.DefaultPrepMinutes),
		SampleCap:          core.IntOrDef(config, "kitchen.sample_cap", def.SampleCap),
		Window:             core.DurationOrDef(config, "kitchen.window", def.Window),
		Parallelism:        core.IntOrDef(config, "kitchen.parallelism", def.Parallelism),
		WarmConcurrency:    core.IntOrDef(config, "kitchen.warm.concurrency", def.WarmConcurrency),
	}
	return p.normalized()
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.DefaultPrepMinutes <= 0 {
		p.DefaultPrepMinutes = def.DefaultPrepMinutes
	}
	if p.SampleCap <= 0 {
		p.SampleCap = def.SampleCap
	}
	if p.Window <= 0 {
		p.Window = def.Window
	}
	if p.Parallelism <= 0 {
		p.Parallelism = 1
	}
	if p.WarmConcurrency <= 0 {
		p.WarmConcurrency = 1
	}
	return p
}

// QueueDelay estimates the minutes a new order waits behind the current
// backlog, assuming the kitchen works on parallelism orders at once. It is
// non-decreasing in currentOrders.
func QueueDelay(currentOrders, avgPrepMinutes, parallelism int) int {
	if currentOrders <= 0 || avgPrepMinutes <= 0 {
		return 0
	}
	if parallelism <= 0 {
		parallelism = 1
	}
	return (currentOrders*avgPrepMinutes + parallelism - 1) / parallelism
}

// Average returns the rounded mean of samples, or def when there are none.
func Average(samples []int, def int) int {
	if len(samples) == 0 {
		return def
	}
	sum := 0
	for _, s := range samples {
		sum += s
	}
	return (2*sum + len(samples)) / (2 * len(samples))
}
