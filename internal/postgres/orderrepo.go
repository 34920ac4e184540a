package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/order"
	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
)

type OrderRepo struct{ s *Store }
type OrderItemRepo struct{ s *Store }
type StatusLogRepo struct{ s *Store }

const orderColumns = `id, order_number, customer_id, restaurant_id, table_id, status, total_amount,
	estimated_prep_minutes, actual_prep_minutes, note, created_at, updated_at,
	confirmed_at, ready_at, served_at, cancelled_at`

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o      order.Order
		status string
		total  pgtype.Numeric
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.RestaurantID, &o.TableID, &status, &total,
		&o.EstimatedPrepMinutes, &o.ActualPrepMinutes, &o.Note, &o.CreatedAt, &o.UpdatedAt,
		&o.ConfirmedAt, &o.ReadyAt, &o.ServedAt, &o.CancelledAt)
	if err != nil {
		return nil, err
	}

	s := orderstatus.ByName(status)
	if s == nil {
		return nil, fmt.Errorf("order %s has unknown status %q", o.ID, status)
	}
	o.Status = *s
	o.TotalAmount = fromNumeric(total)
	return &o, nil
}

// Create fails with core.ErrConflict when the order number is taken.
func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	_, err := r.s.q(ctx).Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		o.ID, o.OrderNumber, o.CustomerID, o.RestaurantID, o.TableID, o.Status.Code(), toNumeric(o.TotalAmount),
		o.EstimatedPrepMinutes, o.ActualPrepMinutes, o.Note, o.CreatedAt, o.UpdatedAt,
		o.ConfirmedAt, o.ReadyAt, o.ServedAt, o.CancelledAt)
	if err != nil {
		return core.Storage("cannot insert order", translate(err))
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, err := scanOrder(r.s.q(ctx).QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "order", id, "cannot get order")
	}
	return o, nil
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, err := scanOrder(r.s.q(ctx).QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFoundOr(err, "order", id, "cannot lock order")
	}
	return o, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, o *order.Order) error {
	tag, err := r.s.q(ctx).Exec(ctx, `
		UPDATE orders SET
			status = $2, actual_prep_minutes = $3, updated_at = $4,
			confirmed_at = $5, ready_at = $6, served_at = $7, cancelled_at = $8
		WHERE id = $1`,
		o.ID, o.Status.Code(), o.ActualPrepMinutes, o.UpdatedAt,
		o.ConfirmedAt, o.ReadyAt, o.ServedAt, o.CancelledAt)
	if err != nil {
		return core.Storage("cannot update order status", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("order", o.ID)
	}
	return nil
}

func (r *OrderRepo) List(ctx context.Context, restaurantID uuid.UUID, filter order.Filter, page order.Page) ([]order.Order, error) {
	sql, args, err := orderListQuery(restaurantID, filter, page)
	if err != nil {
		return nil, err
	}

	rows, err := r.s.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, core.Storage("cannot list orders", err)
	}
	defer rows.Close()

	out := []order.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, core.Storage("cannot scan order", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Storage("cannot list orders", err)
	}
	return out, nil
}

func (r *OrderRepo) CountActive(ctx context.Context, restaurantID uuid.UUID) (int, error) {
	names := make([]string, len(orderstatus.Active))
	for i, s := range orderstatus.Active {
		names[i] = s.Code()
	}

	var n int
	err := r.s.q(ctx).QueryRow(ctx, `
		SELECT count(*) FROM orders
		WHERE restaurant_id = $1 AND status = ANY($2::text[])`, restaurantID, names).Scan(&n)
	if err != nil {
		return 0, core.Storage("cannot count active orders", err)
	}
	return n, nil
}

func (r *OrderRepo) RecentPrepMinutes(ctx context.Context, restaurantID uuid.UUID, since time.Time, limit int) ([]int, error) {
	rows, err := r.s.q(ctx).Query(ctx, `
		SELECT actual_prep_minutes FROM orders
		WHERE restaurant_id = $1 AND status = $2
		  AND actual_prep_minutes IS NOT NULL AND served_at >= $3
		ORDER BY served_at DESC
		LIMIT $4`, restaurantID, orderstatus.Statuses.Served.Code(), since, limit)
	if err != nil {
		return nil, core.Storage("cannot read preparation samples", err)
	}
	samples, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, core.Storage("cannot scan preparation samples", err)
	}
	return samples, nil
}

// CreateBatch inserts every line in one round trip.
func (r *OrderItemRepo) CreateBatch(ctx context.Context, items []order.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO order_items
				(id, order_id, position, menu_item_id, variant_id, quantity, spice_level, note, unit_price, subtotal, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			it.ID, it.OrderID, it.Position, it.MenuItemID, it.VariantID, it.Quantity, string(it.SpiceLevel), it.Note,
			toNumeric(it.UnitPrice), toNumeric(it.Subtotal), it.CreatedAt)
	}

	br := r.s.q(ctx).SendBatch(ctx, batch)
	for range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return core.Storage("cannot insert order item", translate(err))
		}
	}
	if err := br.Close(); err != nil {
		return core.Storage("cannot insert order items", err)
	}
	return nil
}

func (r *OrderItemRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.OrderItem, error) {
	rows, err := r.s.q(ctx).Query(ctx, `
		SELECT id, order_id, position, menu_item_id, variant_id, quantity, spice_level, note,
		       unit_price, subtotal, created_at
		FROM order_items WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, core.Storage("cannot list order items", err)
	}
	defer rows.Close()

	var out []order.OrderItem
	for rows.Next() {
		var (
			it             order.OrderItem
			spice          string
			unit, subtotal pgtype.Numeric
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Position, &it.MenuItemID, &it.VariantID, &it.Quantity,
			&spice, &it.Note, &unit, &subtotal, &it.CreatedAt); err != nil {
			return nil, core.Storage("cannot scan order item", err)
		}
		it.SpiceLevel = order.SpiceLevel(spice)
		it.UnitPrice = fromNumeric(unit)
		it.Subtotal = fromNumeric(subtotal)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Storage("cannot list order items", err)
	}
	return out, nil
}

func (r *StatusLogRepo) Append(ctx context.Context, e *order.StatusLogEntry) error {
	_, err := r.s.q(ctx).Exec(ctx, `
		INSERT INTO order_status_log (id, order_id, from_status, to_status, note, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.OrderID, e.FromStatus, e.ToStatus, e.Note, e.ChangedAt)
	if err != nil {
		return core.Storage("cannot append status log", err)
	}
	return nil
}

func (r *StatusLogRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.StatusLogEntry, error) {
	rows, err := r.s.q(ctx).Query(ctx, `
		SELECT id, order_id, from_status, to_status, note, changed_at
		FROM order_status_log WHERE order_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, core.Storage("cannot list status log", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.StatusLogEntry, error) {
		var e order.StatusLogEntry
		err := row.Scan(&e.ID, &e.OrderID, &e.FromStatus, &e.ToStatus, &e.Note, &e.ChangedAt)
		return e, err
	})
	if err != nil {
		return nil, core.Storage("cannot scan status log", err)
	}
	return entries, nil
}
