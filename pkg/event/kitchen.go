package event

import "time"

const (
	KitchenLoadTopic        = "kitchen.load"
	EventKitchenLoadUpdated = "kitchen.load.updated"
)

type KitchenLoadEvent struct {
	EventType         string    `json:"event_type"`
	OccurredAt        time.Time `json:"occurred_at"`
	RestaurantID      string    `json:"restaurant_id"`
	CurrentOrders     int       `json:"current_orders"`
	AvgPrepMinutes    int       `json:"avg_prep_minutes"`
	SampleCount       int       `json:"sample_count"`
	QueueDelayMinutes int       `json:"queue_delay_minutes"`
}
