package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
)

type SpiceLevel string

const (
	SpiceNone     SpiceLevel = "none"
	SpiceMild     SpiceLevel = "mild"
	SpiceMedium   SpiceLevel = "medium"
	SpiceHot      SpiceLevel = "hot"
	SpiceExtraHot SpiceLevel = "extra_hot"
)

// Valid accepts the empty level, which means the line has no preference.
func (s SpiceLevel) Valid() bool {
	switch s {
	case "", SpiceNone, SpiceMild, SpiceMedium, SpiceHot, SpiceExtraHot:
		return true
	default:
		return false
	}
}

type Order struct {
	ID                   uuid.UUID          `json:"id"`
	OrderNumber          string             `json:"order_number"`
	CustomerID           string             `json:"customer_id"`
	RestaurantID         uuid.UUID          `json:"restaurant_id"`
	TableID              uuid.UUID          `json:"table_id"`
	Status               orderstatus.Status `json:"status"`
	TotalAmount          decimal.Decimal    `json:"total_amount"`
	EstimatedPrepMinutes int                `json:"estimated_preparation_minutes"`
	ActualPrepMinutes    *int               `json:"actual_preparation_minutes,omitempty"`
	Note                 string             `json:"note,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	ConfirmedAt          *time.Time         `json:"confirmed_at,omitempty"`
	ReadyAt              *time.Time         `json:"ready_at,omitempty"`
	ServedAt             *time.Time         `json:"served_at,omitempty"`
	CancelledAt          *time.Time         `json:"cancelled_at,omitempty"`
}

type OrderItem struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"order_id"`
	Position   int             `json:"position"`
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	VariantID  uuid.UUID       `json:"variant_id"`
	Quantity   int             `json:"quantity"`
	SpiceLevel SpiceLevel      `json:"spice_level,omitempty"`
	Note       string          `json:"note,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	CreatedAt  time.Time       `json:"created_at"`
}

// StatusLogEntry records one status change. FromStatus is empty for the
// entry written when the order is created.
type StatusLogEntry struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	Note       string    `json:"note,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

type OrderWithItems struct {
	Order
	Items []OrderItem `json:"items"`
}

func NewOrder() *Order {
	return &Order{
		ID:          uuid.New(),
		Status:      orderstatus.Statuses.Pending,
		TotalAmount: decimal.Zero,
	}
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
}

func (o *Order) BeforeCreate(now time.Time) {
	o.EnsureID()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status.IsZero() {
		o.Status = orderstatus.Statuses.Pending
	}
}

func (o *Order) BeforeUpdate(now time.Time) {
	o.UpdatedAt = now
}

// NewOrderItem prices a line: the subtotal is unitPrice times quantity in
// fixed-point arithmetic.
func NewOrderItem(orderID uuid.UUID, position int, line ItemRequest, unitPrice decimal.Decimal) OrderItem {
	return OrderItem{
		ID:         uuid.New(),
		OrderID:    orderID,
		Position:   position,
		MenuItemID: line.MenuItemID,
		VariantID:  line.VariantID,
		Quantity:   line.Quantity,
		SpiceLevel: line.SpiceLevel,
		Note:       line.Note,
		UnitPrice:  unitPrice,
		Subtotal:   unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
	}
}

// Total sums item subtotals.
func Total(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}
