package kitchen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/pkg/event"
)

// LoadSubscriber refreshes kitchen load whenever an order is created or
// changes status.
type LoadSubscriber struct {
	subscriber events.Subscriber
	estimator  *Estimator
	logger     aqm.Logger
}

func NewLoadSubscriber(subscriber events.Subscriber, estimator *Estimator, logger aqm.Logger) *LoadSubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &LoadSubscriber{
		subscriber: subscriber,
		estimator:  estimator,
		logger:     logger,
	}
}

func (s *LoadSubscriber) Start(ctx context.Context) error {
	s.logger.Infof("Starting LoadSubscriber for topic: %s", event.OrdersLifecycleTopic)

	if err := s.subscriber.Subscribe(ctx, event.OrdersLifecycleTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrdersLifecycleTopic, err)
	}

	s.logger.Info("LoadSubscriber started successfully")
	return nil
}

func (s *LoadSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderLifecycleEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Errorf("Failed to unmarshal order lifecycle event: %v", err)
		return nil
	}

	switch evt.EventType {
	case event.EventOrderCreated, event.EventOrderStatusChanged:
	default:
		s.logger.Infof("Unknown event type: %s", evt.EventType)
		return nil
	}

	restaurantID, err := uuid.Parse(evt.RestaurantID)
	if err != nil {
		s.logger.Errorf("Invalid restaurant id in event %s: %v", evt.EventType, err)
		return nil
	}

	if _, err := s.estimator.Recompute(ctx, restaurantID); err != nil {
		return fmt.Errorf("cannot recompute kitchen load for %s: %w", restaurantID, err)
	}
	return nil
}
