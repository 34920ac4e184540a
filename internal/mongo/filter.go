package mongo

import (
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/ordering/internal/order"
	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
)

// orderListFilter scopes the listing to one restaurant and adds one
// condition per predicate. An empty StatusIn matches nothing.
func orderListFilter(restaurantID uuid.UUID, filter order.Filter) (bson.D, error) {
	out := bson.D{{Key: "restaurant_id", Value: restaurantID.String()}}

	conds := bson.A{}
	for _, p := range filter.Predicates {
		switch p := p.(type) {
		case order.StatusIn:
			conds = append(conds, bson.M{"status": bson.M{"$in": orderstatus.Names(p.Statuses)}})
		case order.TableIs:
			conds = append(conds, bson.M{"table_id": p.TableID.String()})
		case order.CreatedSince:
			conds = append(conds, bson.M{"created_at": bson.M{"$gte": p.Time}})
		case order.CreatedBefore:
			conds = append(conds, bson.M{"created_at": bson.M{"$lt": p.Time}})
		default:
			return nil, fmt.Errorf("unsupported order predicate %T", p)
		}
	}
	if len(conds) > 0 {
		out = append(out, bson.E{Key: "$and", Value: conds})
	}
	return out, nil
}

// orderListOptions sorts newest first with the id as tiebreaker.
func orderListOptions(page order.Page) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if page.Limit > 0 {
		opts.SetSkip(int64(page.Offset())).SetLimit(int64(page.Limit))
	}
	return opts
}
