package tables

import (
	"context"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
)

const (
	StatusAvailable    = "available"
	StatusOpen         = "open"
	StatusOccupied     = "occupied"
	StatusReserved     = "reserved"
	StatusCleaning     = "cleaning"
	StatusOutOfService = "out_of_service"
	StatusClosed       = "closed"
)

type Table struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Number       string    `json:"number"`
	Status       string    `json:"status"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewTable(restaurantID uuid.UUID, number string) *Table {
	return &Table{
		ID:           aqm.GenerateNewID(),
		RestaurantID: restaurantID,
		Number:       number,
		Status:       StatusAvailable,
		IsActive:     true,
	}
}

func (t *Table) GetID() uuid.UUID {
	return t.ID
}

func (t *Table) ResourceType() string {
	return "table"
}

func (t *Table) EnsureID() {
	if t.ID == uuid.Nil {
		t.ID = aqm.GenerateNewID()
	}
}

func (t *Table) BeforeCreate() {
	t.EnsureID()
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
}

// AcceptsOrders reports whether guests at the table may place orders.
func (t *Table) AcceptsOrders() bool {
	switch t.Status {
	case StatusAvailable, StatusOpen, StatusOccupied, StatusReserved:
		return true
	default:
		return false
	}
}

type Repo interface {
	Get(ctx context.Context, id uuid.UUID) (*Table, error)
}

// EnsureOrderable loads the table and checks it can take a new order.
// Missing and inactive tables are not found; tables being cleaned or out
// of service are unavailable.
func EnsureOrderable(ctx context.Context, repo Repo, id uuid.UUID) (*Table, error) {
	t, err := repo.Get(ctx, id)
	if err != nil {
		return nil, core.Storage("cannot load table", err)
	}
	if !t.IsActive {
		return nil, core.NotFound("table", id)
	}
	if !t.AcceptsOrders() {
		return nil, fmt.Errorf("%w: table is %s", core.Unavailable("table", id), t.Status)
	}
	return t, nil
}
