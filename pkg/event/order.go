package event

import "time"

const (
	OrdersLifecycleTopic    = "orders.lifecycle"
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderLifecycleEvent is published after an order is created or changes
// status. The kitchen estimator consumes it to refresh restaurant load.
type OrderLifecycleEvent struct {
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	RestaurantID   string    `json:"restaurant_id"`
	TableID        string    `json:"table_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	TotalAmount    string    `json:"total_amount,omitempty"`
	ItemCount      int       `json:"item_count,omitempty"`
	Note           string    `json:"note,omitempty"`

	EstimatedPrepMinutes int  `json:"estimated_prep_minutes,omitempty"`
	ActualPrepMinutes    *int `json:"actual_prep_minutes,omitempty"`
}
