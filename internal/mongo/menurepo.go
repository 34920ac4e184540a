package mongo

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/menu"
)

type RestaurantRepo struct{ s *Store }
type CategoryRepo struct{ s *Store }
type MenuItemRepo struct{ s *Store }
type VariantRepo struct{ s *Store }

func (r *RestaurantRepo) Get(ctx context.Context, id uuid.UUID) (*menu.Restaurant, error) {
	var doc restaurantDoc
	err := r.s.coll(restaurantsColl).FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "restaurant", id, "cannot get restaurant")
	}
	rest, err := doc.toDomain()
	if err != nil {
		return nil, core.Storage("cannot decode restaurant", err)
	}
	return rest, nil
}

func (r *RestaurantRepo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.s.coll(restaurantsColl).Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, core.Storage("cannot list restaurants", err)
	}
	var docs []restaurantDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.Storage("cannot decode restaurants", err)
	}
	ids := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, core.Storage("cannot decode restaurant id", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *CategoryRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]menu.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.s.coll(categoriesColl).Find(ctx, bson.M{"restaurant_id": restaurantID.String()}, opts)
	if err != nil {
		return nil, core.Storage("cannot list categories", err)
	}
	var docs []categoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.Storage("cannot decode categories", err)
	}
	out := make([]menu.Category, 0, len(docs))
	for _, d := range docs {
		c, err := d.toDomain()
		if err != nil {
			return nil, core.Storage("cannot decode category", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*menu.MenuItem, error) {
	var doc menuItemDoc
	err := r.s.coll(menuItemsColl).FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "menu item", id, "cannot get menu item")
	}
	return decodeMenuItem(doc)
}

// GetForUpdate bumps the document version so that a concurrent
// transaction touching the same item fails with a write conflict.
func (r *MenuItemRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*menu.MenuItem, error) {
	var doc menuItemDoc
	err := r.s.coll(menuItemsColl).FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "menu item", id, "cannot lock menu item")
	}
	return decodeMenuItem(doc)
}

func (r *MenuItemRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]menu.MenuItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.s.coll(menuItemsColl).Find(ctx, bson.M{"restaurant_id": restaurantID.String()}, opts)
	if err != nil {
		return nil, core.Storage("cannot list menu items", err)
	}
	var docs []menuItemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.Storage("cannot decode menu items", err)
	}
	out := make([]menu.MenuItem, 0, len(docs))
	for _, d := range docs {
		m, err := decodeMenuItem(d)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

func (r *MenuItemRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	return updateOne(ctx, r.s.coll(menuItemsColl), id, "menu item",
		bson.M{"$set": bson.M{"is_available": available}, "$currentDate": bson.M{"updated_at": true}})
}

func decodeMenuItem(doc menuItemDoc) (*menu.MenuItem, error) {
	m, err := doc.toDomain()
	if err != nil {
		return nil, core.Storage("cannot decode menu item", err)
	}
	return m, nil
}

func (r *VariantRepo) Get(ctx context.Context, id uuid.UUID) (*menu.Variant, error) {
	var doc variantDoc
	err := r.s.coll(variantsColl).FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "variant", id, "cannot get variant")
	}
	return decodeVariant(doc)
}

func (r *VariantRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*menu.Variant, error) {
	var doc variantDoc
	err := r.s.coll(variantsColl).FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "variant", id, "cannot lock variant")
	}
	return decodeVariant(doc)
}

func (r *VariantRepo) ListByMenuItems(ctx context.Context, menuItemIDs []uuid.UUID) ([]menu.Variant, error) {
	if len(menuItemIDs) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "menu_item_id", Value: 1},
		{Key: "sort_order", Value: 1},
		{Key: "price", Value: 1},
	})
	filter := bson.M{"menu_item_id": bson.M{"$in": idStrings(menuItemIDs)}}
	cursor, err := r.s.coll(variantsColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, core.Storage("cannot list variants", err)
	}
	var docs []variantDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, core.Storage("cannot decode variants", err)
	}
	out := make([]menu.Variant, 0, len(docs))
	for _, d := range docs {
		v, err := decodeVariant(d)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (r *VariantRepo) ClearDefault(ctx context.Context, menuItemID uuid.UUID) error {
	_, err := r.s.coll(variantsColl).UpdateMany(ctx,
		bson.M{"menu_item_id": menuItemID.String(), "is_default": true},
		bson.M{"$set": bson.M{"is_default": false}, "$currentDate": bson.M{"updated_at": true}})
	if err != nil {
		return core.Storage("cannot clear default variant", err)
	}
	return nil
}

// SetDefault relies on the one_default_per_item index: a second default
// on the same item surfaces as core.ErrConflict.
func (r *VariantRepo) SetDefault(ctx context.Context, id uuid.UUID) error {
	return updateOne(ctx, r.s.coll(variantsColl), id, "variant",
		bson.M{"$set": bson.M{"is_default": true}, "$currentDate": bson.M{"updated_at": true}})
}

func (r *VariantRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	return updateOne(ctx, r.s.coll(variantsColl), id, "variant",
		bson.M{"$set": bson.M{"is_available": available}, "$currentDate": bson.M{"updated_at": true}})
}

func (r *VariantRepo) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	amount, err := toDecimal128(price)
	if err != nil {
		return core.Storage("cannot update price", err)
	}
	return updateOne(ctx, r.s.coll(variantsColl), id, "variant",
		bson.M{"$set": bson.M{"price": amount}, "$currentDate": bson.M{"updated_at": true}})
}

func decodeVariant(doc variantDoc) (*menu.Variant, error) {
	v, err := doc.toDomain()
	if err != nil {
		return nil, core.Storage("cannot decode variant", err)
	}
	return v, nil
}

// updateOne applies update to the document with the given id and reports
// a missing document as not found.
func updateOne(ctx context.Context, c *mongo.Collection, id uuid.UUID, what string, update bson.M) error {
	res, err := c.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return core.Storage("cannot update "+what, translate(err))
	}
	if res.MatchedCount == 0 {
		return core.NotFound(what, id)
	}
	return nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
