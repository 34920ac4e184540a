package mongo

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/customers"
	"github.com/appetiteclub/ordering/internal/tables"
)

type TableRepo struct{ s *Store }
type CustomerRepo struct{ s *Store }

func (r *TableRepo) Get(ctx context.Context, id uuid.UUID) (*tables.Table, error) {
	var doc tableDoc
	err := r.s.coll(tablesColl).FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "table", id, "cannot get table")
	}
	t, err := doc.toDomain()
	if err != nil {
		return nil, core.Storage("cannot decode table", err)
	}
	return t, nil
}

func (r *CustomerRepo) Get(ctx context.Context, id string) (*customers.Customer, error) {
	var doc customerDoc
	err := r.s.coll(customersColl).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "customer", id, "cannot get customer")
	}
	return doc.toDomain(), nil
}
