package kitchen

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/pkg/event"
)

type EstimatorDeps struct {
	Snapshots SnapshotRepo
	Stats     OrderStats
	Tx        core.Transactor
	Clock     core.Clock
	Publisher events.Publisher
}

type Estimator struct {
	snapshots SnapshotRepo
	stats     OrderStats
	tx        core.Transactor
	clock     core.Clock
	publisher events.Publisher
	policy    Policy
	logger    aqm.Logger
}

func NewEstimator(deps EstimatorDeps, policy Policy, logger aqm.Logger) *Estimator {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	clock := deps.Clock
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Estimator{
		snapshots: deps.Snapshots,
		stats:     deps.Stats,
		tx:        deps.Tx,
		clock:     clock,
		publisher: deps.Publisher,
		policy:    policy.normalized(),
		logger:    logger,
	}
}

func (e *Estimator) Policy() Policy {
	return e.policy
}

// Recompute rebuilds the restaurant snapshot from order history and
// replaces the stored row, all in one transaction.
func (e *Estimator) Recompute(ctx context.Context, restaurantID uuid.UUID) (*Snapshot, error) {
	var snap *Snapshot
	err := e.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := e.clock.Now()

		current, err := e.stats.CountActive(ctx, restaurantID)
		if err != nil {
			return err
		}

		samples, err := e.stats.RecentPrepMinutes(ctx, restaurantID, now.Add(-e.policy.Window), e.policy.SampleCap)
		if err != nil {
			return err
		}
		if len(samples) > e.policy.SampleCap {
			samples = samples[:e.policy.SampleCap]
		}

		snap = &Snapshot{
			RestaurantID:   restaurantID,
			CurrentOrders:  current,
			AvgPrepMinutes: Average(samples, e.policy.DefaultPrepMinutes),
			SampleCount:    len(samples),
			LastUpdated:    now,
		}
		return e.snapshots.Upsert(ctx, snap)
	})
	if err != nil {
		return nil, core.Storage("cannot recompute kitchen load", err)
	}

	e.publishLoad(ctx, snap)
	return snap, nil
}

// Get returns the cached snapshot, computing it on first use. A restaurant
// without history gets the default-filled snapshot.
func (e *Estimator) Get(ctx context.Context, restaurantID uuid.UUID) (*Snapshot, error) {
	snap, err := e.snapshots.Get(ctx, restaurantID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, core.Storage("cannot load kitchen snapshot", err)
	}
	return e.Recompute(ctx, restaurantID)
}

// Warm recomputes the snapshots of several restaurants concurrently.
func (e *Estimator) Warm(ctx context.Context, restaurantIDs []uuid.UUID) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.policy.WarmConcurrency)

	for _, id := range restaurantIDs {
		id := id
		g.Go(func() error {
			_, err := e.Recompute(ctx, id)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	e.logger.Infof("kitchen load warmed for %d restaurants", len(restaurantIDs))
	return nil
}

// QueueDelay applies the configured parallelism to a snapshot.
func (e *Estimator) QueueDelay(s *Snapshot) int {
	if s == nil {
		return 0
	}
	return QueueDelay(s.CurrentOrders, s.AvgPrepMinutes, e.policy.Parallelism)
}

// Estimate is the quoted preparation time for an order whose slowest dish
// takes maxItemPrep minutes.
func (e *Estimator) Estimate(s *Snapshot, maxItemPrep int) int {
	if maxItemPrep < 0 {
		maxItemPrep = 0
	}
	return e.QueueDelay(s) + maxItemPrep
}

// DefaultSnapshot is used when the stored snapshot cannot be read.
func (e *Estimator) DefaultSnapshot(restaurantID uuid.UUID) *Snapshot {
	return &Snapshot{
		RestaurantID:   restaurantID,
		AvgPrepMinutes: e.policy.DefaultPrepMinutes,
		LastUpdated:    e.clock.Now(),
	}
}

func (e *Estimator) publishLoad(ctx context.Context, s *Snapshot) {
	if e.publisher == nil {
		return
	}
	evt := event.KitchenLoadEvent{
		EventType:         event.EventKitchenLoadUpdated,
		OccurredAt:        s.LastUpdated,
		RestaurantID:      s.RestaurantID.String(),
		CurrentOrders:     s.CurrentOrders,
		AvgPrepMinutes:    s.AvgPrepMinutes,
		SampleCount:       s.SampleCount,
		QueueDelayMinutes: e.QueueDelay(s),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		e.logger.Errorf("cannot marshal kitchen load event: %v", err)
		return
	}
	if err := e.publisher.Publish(ctx, event.KitchenLoadTopic, payload); err != nil {
		e.logger.Errorf("cannot publish kitchen load event: %v", err)
	}
}
