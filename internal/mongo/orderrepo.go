package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/order"
	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
)

type OrderRepo struct{ s *Store }
type OrderItemRepo struct{ s *Store }
type StatusLogRepo struct{ s *Store }

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	doc, err := newOrderDoc(o)
	if err != nil {
		return core.Storage("cannot encode order", err)
	}
	if _, err := r.s.coll(ordersColl).InsertOne(ctx, doc); err != nil {
		return core.Storage("cannot insert order", translate(err))
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var doc orderDoc
	err := r.s.coll(ordersColl).FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "order", id, "cannot get order")
	}
	return decodeOrder(doc)
}

// GetForUpdate bumps the order version. Two transactions changing the same
// order conflict on that write and the driver retries the loser.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var doc orderDoc
	err := r.s.coll(ordersColl).FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "order", id, "cannot lock order")
	}
	return decodeOrder(doc)
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, o *order.Order) error {
	update := bson.M{"$set": bson.M{
		"status":              o.Status.Code(),
		"actual_prep_minutes": o.ActualPrepMinutes,
		"updated_at":          o.UpdatedAt,
		"confirmed_at":        o.ConfirmedAt,
		"ready_at":            o.ReadyAt,
		"served_at":           o.ServedAt,
		"cancelled_at":        o.CancelledAt,
	}}
	return updateOne(ctx, r.s.coll(ordersColl), o.ID, "order", update)
}

func (r *OrderRepo) List(ctx context.Context, restaurantID uuid.UUID, filter order.Filter, page order.Page) ([]order.Order, error) {
	q, err := orderListFilter(restaurantID, filter)
	if err != nil {
		return nil, core.Storage("cannot build order query", err)
	}
	cursor, err := r.s.coll(ordersColl).Find(ctx, q, orderListOptions(page))
	if err != nil {
		return nil, core.Storage("cannot list orders", err)
	}
	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.Storage("cannot decode orders", err)
	}
	out := make([]order.Order, 0, len(docs))
	for _, d := range docs {
		o, err := decodeOrder(d)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, nil
}

func (r *OrderRepo) CountActive(ctx context.Context, restaurantID uuid.UUID) (int, error) {
	n, err := r.s.coll(ordersColl).CountDocuments(ctx, bson.M{
		"restaurant_id": restaurantID.String(),
		"status":        bson.M{"$in": orderstatus.Names(orderstatus.Active)},
	})
	if err != nil {
		return 0, core.Storage("cannot count active orders", err)
	}
	return int(n), nil
}

func (r *OrderRepo) RecentPrepMinutes(ctx context.Context, restaurantID uuid.UUID, since time.Time, limit int) ([]int, error) {
	filter := bson.M{
		"restaurant_id":       restaurantID.String(),
		"status":              orderstatus.Statuses.Served.Code(),
		"actual_prep_minutes": bson.M{"$ne": nil},
		"served_at":           bson.M{"$gte": since},
	}
	opts := options.Find().
		SetProjection(bson.M{"actual_prep_minutes": 1}).
		SetSort(bson.D{{Key: "served_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.s.coll(ordersColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, core.Storage("cannot read preparation samples", err)
	}
	var docs []struct {
		ActualPrepMinutes *int `bson:"actual_prep_minutes"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.Storage("cannot decode preparation samples", err)
	}
	samples := make([]int, 0, len(docs))
	for _, d := range docs {
		if d.ActualPrepMinutes != nil {
			samples = append(samples, *d.ActualPrepMinutes)
		}
	}
	return samples, nil
}

func decodeOrder(doc orderDoc) (*order.Order, error) {
	o, err := doc.toDomain()
	if err != nil {
		return nil, core.Storage("cannot decode order", err)
	}
	return o, nil
}

func (r *OrderItemRepo) CreateBatch(ctx context.Context, items []order.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(items))
	for _, it := range items {
		doc, err := newOrderItemDoc(it)
		if err != nil {
			return core.Storage("cannot encode order item", err)
		}
		docs = append(docs, doc)
	}
	if _, err := r.s.coll(orderItemsColl).InsertMany(ctx, docs); err != nil {
		return core.Storage("cannot insert order items", translate(err))
	}
	return nil
}

func (r *OrderItemRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.OrderItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := r.s.coll(orderItemsColl).Find(ctx, bson.M{"order_id": orderID.String()}, opts)
	if err != nil {
		return nil, core.Storage("cannot list order items", err)
	}
	var docs []orderItemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.Storage("cannot decode order items", err)
	}
	out := make([]order.OrderItem, 0, len(docs))
	for _, d := range docs {
		it, err := d.toDomain()
		if err != nil {
			return nil, core.Storage("cannot decode order item", err)
		}
		out = append(out, it)
	}
	return out, nil
}

// Append numbers entries per order. It runs inside the status change
// transaction, which already holds the order, so the count is stable.
func (r *StatusLogRepo) Append(ctx context.Context, e *order.StatusLogEntry) error {
	c := r.s.coll(statusLogColl)
	n, err := c.CountDocuments(ctx, bson.M{"order_id": e.OrderID.String()})
	if err != nil {
		return core.Storage("cannot append status log", err)
	}
	doc := statusLogDoc{
		ID:         e.ID.String(),
		OrderID:    e.OrderID.String(),
		Seq:        n + 1,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Note:       e.Note,
		ChangedAt:  e.ChangedAt,
	}
	if _, err := c.InsertOne(ctx, doc); err != nil {
		return core.Storage("cannot append status log", translate(err))
	}
	return nil
}

func (r *StatusLogRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.StatusLogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := r.s.coll(statusLogColl).Find(ctx, bson.M{"order_id": orderID.String()}, opts)
	if err != nil {
		return nil, core.Storage("cannot list status log", err)
	}
	var docs []statusLogDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.Storage("cannot decode status log", err)
	}
	out := make([]order.StatusLogEntry, 0, len(docs))
	for _, d := range docs {
		ids, err := parseIDs(d.ID, d.OrderID)
		if err != nil {
			return nil, core.Storage("cannot decode status log", err)
		}
		out = append(out, order.StatusLogEntry{
			ID:         ids[0],
			OrderID:    ids[1],
			FromStatus: d.FromStatus,
			ToStatus:   d.ToStatus,
			Note:       d.Note,
			ChangedAt:  d.ChangedAt.UTC(),
		})
	}
	return out, nil
}
