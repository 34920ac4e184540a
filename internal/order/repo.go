package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/customers"
	"github.com/appetiteclub/ordering/internal/tables"
)

// OrderRepo returns core.ErrNotFound for missing orders and
// core.ErrConflict when an order number is already taken.
type OrderRepo interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	// GetForUpdate locks the order for the rest of the transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, o *Order) error
	List(ctx context.Context, restaurantID uuid.UUID, filter Filter, page Page) ([]Order, error)
}

type OrderItemRepo interface {
	CreateBatch(ctx context.Context, items []OrderItem) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error)
}

type StatusLogRepo interface {
	Append(ctx context.Context, e *StatusLogEntry) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]StatusLogEntry, error)
}

type Repos struct {
	OrderRepo     OrderRepo
	OrderItemRepo OrderItemRepo
	StatusLogRepo StatusLogRepo
	TableRepo     tables.Repo
	CustomerRepo  customers.Repo
}
