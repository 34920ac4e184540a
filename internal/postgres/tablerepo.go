package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/customers"
	"github.com/appetiteclub/ordering/internal/tables"
)

type TableRepo struct{ s *Store }
type CustomerRepo struct{ s *Store }

func (r *TableRepo) Get(ctx context.Context, id uuid.UUID) (*tables.Table, error) {
	var t tables.Table
	err := r.s.q(ctx).QueryRow(ctx, `
		SELECT id, restaurant_id, number, status, is_active, created_at, updated_at
		FROM tables WHERE id = $1`, id).
		Scan(&t.ID, &t.RestaurantID, &t.Number, &t.Status, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, "table", id, "cannot get table")
	}
	return &t, nil
}

func (r *CustomerRepo) Get(ctx context.Context, id string) (*customers.Customer, error) {
	var c customers.Customer
	err := r.s.q(ctx).QueryRow(ctx, `
		SELECT id, display_name, is_active, created_at
		FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.DisplayName, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "customer", id, "cannot get customer")
	}
	return &c, nil
}
