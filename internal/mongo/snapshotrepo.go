package mongo

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/kitchen"
)

type SnapshotRepo struct{ s *Store }

func (r *SnapshotRepo) Get(ctx context.Context, restaurantID uuid.UUID) (*kitchen.Snapshot, error) {
	var doc snapshotDoc
	err := r.s.coll(snapshotsColl).FindOne(ctx, bson.M{"_id": restaurantID.String()}).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "kitchen load", restaurantID, "cannot get kitchen load")
	}
	snap, err := doc.toDomain()
	if err != nil {
		return nil, core.Storage("cannot decode kitchen load", err)
	}
	return snap, nil
}

func (r *SnapshotRepo) Upsert(ctx context.Context, s *kitchen.Snapshot) error {
	doc := snapshotDoc{
		RestaurantID:   s.RestaurantID.String(),
		CurrentOrders:  s.CurrentOrders,
		AvgPrepMinutes: s.AvgPrepMinutes,
		SampleCount:    s.SampleCount,
		LastUpdated:    s.LastUpdated,
	}
	_, err := r.s.coll(snapshotsColl).ReplaceOne(ctx,
		bson.M{"_id": doc.RestaurantID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return core.Storage("cannot save kitchen load", translate(err))
	}
	return nil
}
