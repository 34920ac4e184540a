package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/kitchen"
)

type SnapshotRepo struct{ s *Store }

func (r *SnapshotRepo) Get(ctx context.Context, restaurantID uuid.UUID) (*kitchen.Snapshot, error) {
	var snap kitchen.Snapshot
	err := r.s.q(ctx).QueryRow(ctx, `
		SELECT restaurant_id, current_orders, average_preparation_minutes, sample_count, last_updated
		FROM kitchen_load_snapshots WHERE restaurant_id = $1`, restaurantID).
		Scan(&snap.RestaurantID, &snap.CurrentOrders, &snap.AvgPrepMinutes, &snap.SampleCount, &snap.LastUpdated)
	if err != nil {
		return nil, notFoundOr(err, "kitchen snapshot", restaurantID, "cannot get kitchen snapshot")
	}
	return &snap, nil
}

// Upsert replaces the restaurant's single snapshot row.
func (r *SnapshotRepo) Upsert(ctx context.Context, snap *kitchen.Snapshot) error {
	_, err := r.s.q(ctx).Exec(ctx, `
		INSERT INTO kitchen_load_snapshots
			(restaurant_id, current_orders, average_preparation_minutes, sample_count, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (restaurant_id) DO UPDATE SET
			current_orders              = EXCLUDED.current_orders,
			average_preparation_minutes = EXCLUDED.average_preparation_minutes,
			sample_count                = EXCLUDED.sample_count,
			last_updated                = EXCLUDED.last_updated`,
		snap.RestaurantID, snap.CurrentOrders, snap.AvgPrepMinutes, snap.SampleCount, snap.LastUpdated)
	if err != nil {
		return core.Storage("cannot upsert kitchen snapshot", err)
	}
	return nil
}
