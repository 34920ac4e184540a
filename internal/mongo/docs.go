package mongo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/appetiteclub/ordering/internal/customers"
	"github.com/appetiteclub/ordering/internal/kitchen"
	"github.com/appetiteclub/ordering/internal/menu"
	"github.com/appetiteclub/ordering/internal/order"
	"github.com/appetiteclub/ordering/internal/tables"
	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
)

// Documents keep ids as strings and money as Decimal128.

type restaurantDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	IsActive  bool      `bson:"is_active"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d restaurantDoc) toDomain() (*menu.Restaurant, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid restaurant id %q: %w", d.ID, err)
	}
	return &menu.Restaurant{ID: id, Name: d.Name, IsActive: d.IsActive, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}, nil
}

type categoryDoc struct {
	ID           string            `bson:"_id"`
	RestaurantID string            `bson:"restaurant_id"`
	Name         map[string]string `bson:"name"`
	SortOrder    int               `bson:"sort_order"`
	IsActive     bool              `bson:"is_active"`
}

func (d categoryDoc) toDomain() (menu.Category, error) {
	ids, err := parseIDs(d.ID, d.RestaurantID)
	if err != nil {
		return menu.Category{}, err
	}
	return menu.Category{ID: ids[0], RestaurantID: ids[1], Name: d.Name, SortOrder: d.SortOrder, IsActive: d.IsActive}, nil
}

type menuItemDoc struct {
	ID              string            `bson:"_id"`
	RestaurantID    string            `bson:"restaurant_id"`
	CategoryID      string            `bson:"category_id"`
	Name            map[string]string `bson:"name"`
	Description     map[string]string `bson:"description"`
	PrepTimeMinutes int               `bson:"prep_time_minutes"`
	SortOrder       int               `bson:"sort_order"`
	IsAvailable     bool              `bson:"is_available"`
	IsActive        bool              `bson:"is_active"`
	Version         int64             `bson:"version"`
	CreatedAt       time.Time         `bson:"created_at"`
	UpdatedAt       time.Time         `bson:"updated_at"`
}

func (d menuItemDoc) toDomain() (*menu.MenuItem, error) {
	ids, err := parseIDs(d.ID, d.RestaurantID, d.CategoryID)
	if err != nil {
		return nil, err
	}
	return &menu.MenuItem{
		ID:              ids[0],
		RestaurantID:    ids[1],
		CategoryID:      ids[2],
		Name:            d.Name,
		Description:     d.Description,
		PrepTimeMinutes: d.PrepTimeMinutes,
		SortOrder:       d.SortOrder,
		IsAvailable:     d.IsAvailable,
		IsActive:        d.IsActive,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

type variantDoc struct {
	ID          string               `bson:"_id"`
	MenuItemID  string               `bson:"menu_item_id"`
	Label       string               `bson:"label"`
	Price       primitive.Decimal128 `bson:"price"`
	SortOrder   int                  `bson:"sort_order"`
	IsAvailable bool                 `bson:"is_available"`
	IsDefault   bool                 `bson:"is_default"`
	Version     int64                `bson:"version"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func (d variantDoc) toDomain() (*menu.Variant, error) {
	ids, err := parseIDs(d.ID, d.MenuItemID)
	if err != nil {
		return nil, err
	}
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, err
	}
	return &menu.Variant{
		ID:          ids[0],
		MenuItemID:  ids[1],
		Label:       d.Label,
		Price:       price,
		SortOrder:   d.SortOrder,
		IsAvailable: d.IsAvailable,
		IsDefault:   d.IsDefault,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

type tableDoc struct {
	ID           string    `bson:"_id"`
	RestaurantID string    `bson:"restaurant_id"`
	Number       string    `bson:"number"`
	Status       string    `bson:"status"`
	IsActive     bool      `bson:"is_active"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d tableDoc) toDomain() (*tables.Table, error) {
	ids, err := parseIDs(d.ID, d.RestaurantID)
	if err != nil {
		return nil, err
	}
	return &tables.Table{
		ID:           ids[0],
		RestaurantID: ids[1],
		Number:       d.Number,
		Status:       d.Status,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

type customerDoc struct {
	ID          string    `bson:"_id"`
	DisplayName string    `bson:"display_name"`
	IsActive    bool      `bson:"is_active"`
	CreatedAt   time.Time `bson:"created_at"`
}

type orderDoc struct {
	ID                   string               `bson:"_id"`
	OrderNumber          string               `bson:"order_number"`
	CustomerID           string               `bson:"customer_id"`
	RestaurantID         string               `bson:"restaurant_id"`
	TableID              string               `bson:"table_id"`
	Status               string               `bson:"status"`
	TotalAmount          primitive.Decimal128 `bson:"total_amount"`
	EstimatedPrepMinutes int                  `bson:"estimated_prep_minutes"`
	ActualPrepMinutes    *int                 `bson:"actual_prep_minutes"`
	Note                 string               `bson:"note"`
	Version              int64                `bson:"version"`
	CreatedAt            time.Time            `bson:"created_at"`
	UpdatedAt            time.Time            `bson:"updated_at"`
	ConfirmedAt          *time.Time           `bson:"confirmed_at"`
	ReadyAt              *time.Time           `bson:"ready_at"`
	ServedAt             *time.Time           `bson:"served_at"`
	CancelledAt          *time.Time           `bson:"cancelled_at"`
}

func newOrderDoc(o *order.Order) (orderDoc, error) {
	total, err := toDecimal128(o.TotalAmount)
	if err != nil {
		return orderDoc{}, err
	}
	return orderDoc{
		ID:                   o.ID.String(),
		OrderNumber:          o.OrderNumber,
		CustomerID:           o.CustomerID,
		RestaurantID:         o.RestaurantID.String(),
		TableID:              o.TableID.String(),
		Status:               o.Status.Code(),
		TotalAmount:          total,
		EstimatedPrepMinutes: o.EstimatedPrepMinutes,
		ActualPrepMinutes:    o.ActualPrepMinutes,
		Note:                 o.Note,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		ConfirmedAt:          o.ConfirmedAt,
		ReadyAt:              o.ReadyAt,
		ServedAt:             o.ServedAt,
		CancelledAt:          o.CancelledAt,
	}, nil
}

func (d orderDoc) toDomain() (*order.Order, error) {
	ids, err := parseIDs(d.ID, d.RestaurantID, d.TableID)
	if err != nil {
		return nil, err
	}
	status := orderstatus.ByName(d.Status)
	if status == nil {
		return nil, fmt.Errorf("order %s has unknown status %q", d.ID, d.Status)
	}
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return nil, err
	}
	return &order.Order{
		ID:                   ids[0],
		OrderNumber:          d.OrderNumber,
		CustomerID:           d.CustomerID,
		RestaurantID:         ids[1],
		TableID:              ids[2],
		Status:               *status,
		TotalAmount:          total,
		EstimatedPrepMinutes: d.EstimatedPrepMinutes,
		ActualPrepMinutes:    d.ActualPrepMinutes,
		Note:                 d.Note,
		CreatedAt:            d.CreatedAt.UTC(),
		UpdatedAt:            d.UpdatedAt.UTC(),
		ConfirmedAt:          utcPtr(d.ConfirmedAt),
		ReadyAt:              utcPtr(d.ReadyAt),
		ServedAt:             utcPtr(d.ServedAt),
		CancelledAt:          utcPtr(d.CancelledAt),
	}, nil
}

type orderItemDoc struct {
	ID         string               `bson:"_id"`
	OrderID    string               `bson:"order_id"`
	Position   int                  `bson:"position"`
	MenuItemID string               `bson:"menu_item_id"`
	VariantID  string               `bson:"variant_id"`
	Quantity   int                  `bson:"quantity"`
	SpiceLevel string               `bson:"spice_level,omitempty"`
	Note       string               `bson:"note,omitempty"`
	UnitPrice  primitive.Decimal128 `bson:"unit_price"`
	Subtotal   primitive.Decimal128 `bson:"subtotal"`
	CreatedAt  time.Time            `bson:"created_at"`
}

func newOrderItemDoc(it order.OrderItem) (orderItemDoc, error) {
	unit, err := toDecimal128(it.UnitPrice)
	if err != nil {
		return orderItemDoc{}, err
	}
	subtotal, err := toDecimal128(it.Subtotal)
	if err != nil {
		return orderItemDoc{}, err
	}
	return orderItemDoc{
		ID:         it.ID.String(),
		OrderID:    it.OrderID.String(),
		Position:   it.Position,
		MenuItemID: it.MenuItemID.String(),
		VariantID:  it.VariantID.String(),
		Quantity:   it.Quantity,
		SpiceLevel: string(it.SpiceLevel),
		Note:       it.Note,
		UnitPrice:  unit,
		Subtotal:   subtotal,
		CreatedAt:  it.CreatedAt,
	}, nil
}

func (d orderItemDoc) toDomain() (order.OrderItem, error) {
	ids, err := parseIDs(d.ID, d.OrderID, d.MenuItemID, d.VariantID)
	if err != nil {
		return order.OrderItem{}, err
	}
	unit, err := fromDecimal128(d.UnitPrice)
	if err != nil {
		return order.OrderItem{}, err
	}
	subtotal, err := fromDecimal128(d.Subtotal)
	if err != nil {
		return order.OrderItem{}, err
	}
	return order.OrderItem{
		ID:         ids[0],
		OrderID:    ids[1],
		Position:   d.Position,
		MenuItemID: ids[2],
		VariantID:  ids[3],
		Quantity:   d.Quantity,
		SpiceLevel: order.SpiceLevel(d.SpiceLevel),
		Note:       d.Note,
		UnitPrice:  unit,
		Subtotal:   subtotal,
		CreatedAt:  d.CreatedAt.UTC(),
	}, nil
}

type statusLogDoc struct {
	ID         string    `bson:"_id"`
	OrderID    string    `bson:"order_id"`
	Seq        int64     `bson:"seq"`
	FromStatus string    `bson:"from_status,omitempty"`
	ToStatus   string    `bson:"to_status"`
	Note       string    `bson:"note,omitempty"`
	ChangedAt  time.Time `bson:"changed_at"`
}

type snapshotDoc struct {
	RestaurantID   string    `bson:"_id"`
	CurrentOrders  int       `bson:"current_orders"`
	AvgPrepMinutes int       `bson:"average_preparation_minutes"`
	SampleCount    int       `bson:"sample_count"`
	LastUpdated    time.Time `bson:"last_updated"`
}

func (d snapshotDoc) toDomain() (*kitchen.Snapshot, error) {
	id, err := uuid.Parse(d.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("invalid restaurant id %q: %w", d.RestaurantID, err)
	}
	return &kitchen.Snapshot{
		RestaurantID:   id,
		CurrentOrders:  d.CurrentOrders,
		AvgPrepMinutes: d.AvgPrepMinutes,
		SampleCount:    d.SampleCount,
		LastUpdated:    d.LastUpdated.UTC(),
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("cannot encode amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot decode amount %s: %w", v, err)
	}
	return d, nil
}

func parseIDs(raw ...string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", s, err)
		}
		out[i] = id
	}
	return out, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (d customerDoc) toDomain() *customers.Customer {
	return &customers.Customer{ID: d.ID, DisplayName: d.DisplayName, IsActive: d.IsActive, CreatedAt: d.CreatedAt}
}
