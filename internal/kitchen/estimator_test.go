package kitchen

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/pkg/event"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type estimatorFixture struct {
	estimator *Estimator
	snapshots *MockSnapshotRepo
	stats     *MockOrderStats
	tx        *MockTransactor
	publisher *MockPublisher
	clock     *core.FixedClock
}

func newEstimatorFixture(policy Policy) *estimatorFixture {
	f := &estimatorFixture{
		snapshots: NewMockSnapshotRepo(),
		stats:     NewMockOrderStats(),
		tx:        &MockTransactor{},
		publisher: NewMockPublisher(),
		clock:     core.NewFixedClock(t0),
	}
	f.estimator = NewEstimator(EstimatorDeps{
		Snapshots: f.snapshots,
		Stats:     f.stats,
		Tx:        f.tx,
		Clock:     f.clock,
		Publisher: f.publisher,
	}, policy, aqm.NewNoopLogger())
	return f
}

func TestEstimatorGetWithoutHistory(t *testing.T) {
	f := newEstimatorFixture(DefaultPolicy())
	restaurantID := uuid.New()

	snap, err := f.estimator.Get(context.Background(), restaurantID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if snap.AvgPrepMinutes != 15 {
		t.Errorf("AvgPrepMinutes = %d, want 15", snap.AvgPrepMinutes)
	}
	if snap.CurrentOrders != 0 {
		t.Errorf("CurrentOrders = %d, want 0", snap.CurrentOrders)
	}
	if snap.SampleCount != 0 {
		t.Errorf("SampleCount = %d, want 0", snap.SampleCount)
	}
	if !snap.LastUpdated.Equal(t0) {
		t.Errorf("LastUpdated = %v, want %v", snap.LastUpdated, t0)
	}
}

func TestEstimatorGetIsIdempotent(t *testing.T) {
	f := newEstimatorFixture(DefaultPolicy())
	restaurantID := uuid.New()
	f.stats.active[restaurantID] = 3

	first, err := f.estimator.Get(context.Background(), restaurantID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	f.clock.Advance(5 * time.Minute)

	second, err := f.estimator.Get(context.Background(), restaurantID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if *first != *second {
		t.Errorf("Get() not idempotent: %+v vs %+v", first, second)
	}
	if f.snapshots.Upserts() != 1 {
		t.Errorf("upserts = %d, want 1", f.snapshots.Upserts())
	}
}

func TestEstimatorRecompute(t *testing.T) {
	restaurantID := uuid.New()

	tests := []struct {
		name        string
		policy      Policy
		active      int
		samples     []servedSample
		wantAvg     int
		wantSamples int
	}{
		{
			name:    "averageOfRecentSamples",
			policy:  DefaultPolicy(),
			active:  2,
			samples: []servedSample{{10, t0.Add(-time.Hour)}, {20, t0.Add(-2 * time.Hour)}, {15, t0.Add(-3 * time.Hour)}},
			wantAvg: 15, wantSamples: 3,
		},
		{
			name:    "samplesOutsideWindowIgnored",
			policy:  DefaultPolicy(),
			samples: []servedSample{{30, t0.Add(-time.Hour)}, {90, t0.Add(-25 * time.Hour)}},
			wantAvg: 30, wantSamples: 1,
		},
		{
			name:    "sampleCapKeepsNewest",
			policy:  Policy{DefaultPrepMinutes: 15, SampleCap: 2, Window: 24 * time.Hour, Parallelism: 4},
			samples: []servedSample{{10, t0.Add(-time.Minute)}, {20, t0.Add(-2 * time.Minute)}, {60, t0.Add(-3 * time.Minute)}},
			wantAvg: 15, wantSamples: 2,
		},
		{
			name:    "configuredDefault",
			policy:  Policy{DefaultPrepMinutes: 25, SampleCap: 50, Window: 24 * time.Hour, Parallelism: 4},
			active:  5,
			wantAvg: 25, wantSamples: 0,
		},
		{
			name:    "roundedAverage",
			policy:  DefaultPolicy(),
			samples: []servedSample{{10, t0.Add(-time.Minute)}, {11, t0.Add(-2 * time.Minute)}},
			wantAvg: 11, wantSamples: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEstimatorFixture(tt.policy)
			f.stats.active[restaurantID] = tt.active
			f.stats.served[restaurantID] = tt.samples

			snap, err := f.estimator.Recompute(context.Background(), restaurantID)
			if err != nil {
				t.Fatalf("Recompute() error = %v", err)
			}

			if snap.CurrentOrders != tt.active {
				t.Errorf("CurrentOrders = %d, want %d", snap.CurrentOrders, tt.active)
			}
			if snap.AvgPrepMinutes != tt.wantAvg {
				t.Errorf("AvgPrepMinutes = %d, want %d", snap.AvgPrepMinutes, tt.wantAvg)
			}
			if snap.SampleCount != tt.wantSamples {
				t.Errorf("SampleCount = %d, want %d", snap.SampleCount, tt.wantSamples)
			}
			if f.stats.lastLimit != f.estimator.Policy().SampleCap {
				t.Errorf("sample limit = %d, want %d", f.stats.lastLimit, f.estimator.Policy().SampleCap)
			}
			if f.tx.Calls != 1 {
				t.Errorf("transactions = %d, want 1", f.tx.Calls)
			}

			stored, err := f.snapshots.Get(context.Background(), restaurantID)
			if err != nil {
				t.Fatalf("stored snapshot missing: %v", err)
			}
			if *stored != *snap {
				t.Errorf("stored snapshot = %+v, want %+v", stored, snap)
			}
		})
	}
}

func TestEstimatorRecomputeReplacesSnapshot(t *testing.T) {
	f := newEstimatorFixture(DefaultPolicy())
	restaurantID := uuid.New()
	f.stats.active[restaurantID] = 4

	if _, err := f.estimator.Recompute(context.Background(), restaurantID); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	f.stats.active[restaurantID] = 1
	f.clock.Advance(time.Minute)

	snap, err := f.estimator.Recompute(context.Background(), restaurantID)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	cached, _ := f.estimator.Get(context.Background(), restaurantID)
	if cached.CurrentOrders != 1 || !cached.LastUpdated.Equal(snap.LastUpdated) {
		t.Errorf("cached snapshot = %+v, want the recomputed one", cached)
	}
}

func TestEstimatorRecomputePublishesLoad(t *testing.T) {
	f := newEstimatorFixture(DefaultPolicy())
	restaurantID := uuid.New()
	f.stats.active[restaurantID] = 8

	if _, err := f.estimator.Recompute(context.Background(), restaurantID); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	msgs := f.publisher.Messages[event.KitchenLoadTopic]
	if len(msgs) != 1 {
		t.Fatalf("published = %d, want 1", len(msgs))
	}

	var evt event.KitchenLoadEvent
	if err := json.Unmarshal(msgs[0], &evt); err != nil {
		t.Fatalf("cannot decode event: %v", err)
	}
	if evt.CurrentOrders != 8 || evt.QueueDelayMinutes != 30 {
		t.Errorf("event = %+v, want 8 orders and 30 minutes delay", evt)
	}
}

func TestEstimatorStorageErrors(t *testing.T) {
	restaurantID := uuid.New()

	t.Run("countFails", func(t *testing.T) {
		f := newEstimatorFixture(DefaultPolicy())
		f.stats.CountFunc = func(ctx context.Context, id uuid.UUID) (int, error) {
			return 0, errors.New("connection refused")
		}

		_, err := f.estimator.Recompute(context.Background(), restaurantID)
		if !errors.Is(err, core.ErrStorage) {
			t.Errorf("error = %v, want storage error", err)
		}
		if f.snapshots.Upserts() != 0 {
			t.Error("snapshot should not be written")
		}
	})

	t.Run("snapshotReadFails", func(t *testing.T) {
		f := newEstimatorFixture(DefaultPolicy())
		f.snapshots.GetFunc = func(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
			return nil, errors.New("i/o timeout")
		}

		_, err := f.estimator.Get(context.Background(), restaurantID)
		if !errors.Is(err, core.ErrStorage) {
			t.Errorf("error = %v, want storage error", err)
		}
	})
}

func TestEstimatorWarm(t *testing.T) {
	f := newEstimatorFixture(DefaultPolicy())

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	if err := f.estimator.Warm(context.Background(), ids); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}

	for _, id := range ids {
		if _, err := f.snapshots.Get(context.Background(), id); err != nil {
			t.Errorf("snapshot for %s missing after warm-up", id)
		}
	}
}

func TestQueueDelay(t *testing.T) {
	tests := []struct {
		name        string
		orders      int
		avg         int
		parallelism int
		want        int
	}{
		{name: "emptyKitchen", orders: 0, avg: 15, parallelism: 4, want: 0},
		{name: "singleOrder", orders: 1, avg: 15, parallelism: 4, want: 4},
		{name: "fullBatch", orders: 4, avg: 15, parallelism: 4, want: 15},
		{name: "backlog", orders: 9, avg: 10, parallelism: 3, want: 30},
		{name: "zeroParallelism", orders: 2, avg: 10, parallelism: 0, want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QueueDelay(tt.orders, tt.avg, tt.parallelism); got != tt.want {
				t.Errorf("QueueDelay() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQueueDelayIsMonotonic(t *testing.T) {
	for _, avg := range []int{1, 7, 15, 42} {
		for _, par := range []int{1, 2, 4, 7} {
			prev := QueueDelay(0, avg, par)
			for n := 1; n <= 200; n++ {
				got := QueueDelay(n, avg, par)
				if got < prev {
					t.Fatalf("QueueDelay(%d, %d, %d) = %d < %d", n, avg, par, got, prev)
				}
				prev = got
			}
		}
	}
}

func TestEstimate(t *testing.T) {
	f := newEstimatorFixture(DefaultPolicy())
	snap := &Snapshot{CurrentOrders: 4, AvgPrepMinutes: 15}

	if got := f.estimator.Estimate(snap, 12); got != 27 {
		t.Errorf("Estimate() = %d, want 27", got)
	}
	if got := f.estimator.Estimate(f.estimator.DefaultSnapshot(uuid.New()), 12); got != 12 {
		t.Errorf("Estimate() with default snapshot = %d, want 12", got)
	}
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(aqm.NewConfig())
	if p != DefaultPolicy() {
		t.Errorf("PolicyFromConfig() = %+v, want defaults %+v", p, DefaultPolicy())
	}

	p = PolicyFromConfig(nil)
	if p != DefaultPolicy() {
		t.Errorf("PolicyFromConfig(nil) = %+v, want defaults", p)
	}
}
