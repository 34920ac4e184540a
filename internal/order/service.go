package order

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/customers"
	"github.com/appetiteclub/ordering/internal/kitchen"
	"github.com/appetiteclub/ordering/internal/menu"
	"github.com/appetiteclub/ordering/internal/tables"
	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
	"github.com/appetiteclub/ordering/pkg/event"
)

type PriceResolver interface {
	ResolveVariantPrice(ctx context.Context, menuItemID, variantID uuid.UUID) (*menu.Price, error)
}

type ServiceDeps struct {
	Repos     Repos
	Resolver  PriceResolver
	Estimator *kitchen.Estimator
	Tx        core.Transactor
	Clock     core.Clock
	Publisher events.Publisher
	Numbers   NumberFunc
}

type Service struct {
	repos     Repos
	resolver  PriceResolver
	estimator *kitchen.Estimator
	tx        core.Transactor
	clock     core.Clock
	publisher events.Publisher
	numbers   NumberFunc
	settings  Settings
	query     QuerySettings
	logger    aqm.Logger
}

func NewService(deps ServiceDeps, settings Settings, query QuerySettings, logger aqm.Logger) *Service {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	clock := deps.Clock
	if clock == nil {
		clock = core.SystemClock{}
	}
	numbers := deps.Numbers
	if numbers == nil {
		numbers = NewOrderNumber
	}
	if settings.NumberRetries < 1 {
		settings.NumberRetries = 1
	}
	return &Service{
		repos:     deps.Repos,
		resolver:  deps.Resolver,
		estimator: deps.Estimator,
		tx:        deps.Tx,
		clock:     clock,
		publisher: deps.Publisher,
		numbers:   numbers,
		settings:  settings,
		query:     query,
		logger:    logger,
	}
}

// CreateOrder validates the request, prices every line at its current
// variant price and stores the order with its items in one transaction.
// Nothing is stored if any line fails.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderWithItems, error) {
	if err := req.Validate(s.settings); err != nil {
		return nil, err
	}

	table, err := tables.EnsureOrderable(ctx, s.repos.TableRepo, req.TableID)
	if err != nil {
		return nil, err
	}

	if _, err := customers.EnsureActive(ctx, s.repos.CustomerRepo, req.CustomerID); err != nil {
		return nil, err
	}

	snap := s.kitchenSnapshot(ctx, table.RestaurantID)

	var result *OrderWithItems
	for attempt := 1; attempt <= s.settings.NumberRetries; attempt++ {
		result, err = s.insertOrder(ctx, req, table, snap)
		if err == nil {
			break
		}
		if !errors.Is(err, core.ErrConflict) {
			return nil, err
		}
		s.logger.Infof("order number collision on attempt %d, retrying", attempt)
	}
	if err != nil {
		return nil, &core.StorageError{Op: "cannot allocate order number", Err: err}
	}

	s.logger.Infof("order %s created for table %s, total %s", result.OrderNumber, table.Number, result.TotalAmount.StringFixed(2))

	s.publishLifecycle(ctx, event.EventOrderCreated, &result.Order, "", len(result.Items))
	s.afterChange(ctx, result.RestaurantID)
	return result, nil
}

func (s *Service) insertOrder(ctx context.Context, req CreateOrderRequest, table *tables.Table, snap *kitchen.Snapshot) (*OrderWithItems, error) {
	var result *OrderWithItems
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.clock.Now()

		o := NewOrder()
		o.CustomerID = req.CustomerID
		o.RestaurantID = table.RestaurantID
		o.TableID = table.ID
		o.Note = req.Note
		o.OrderNumber = s.numbers(now)
		o.BeforeCreate(now)

		items := make([]OrderItem, 0, len(req.Items))
		maxPrep := 0
		for i, line := range req.Items {
			price, err := s.resolver.ResolveVariantPrice(ctx, line.MenuItemID, line.VariantID)
			if err != nil {
				return err
			}
			if price.RestaurantID != table.RestaurantID {
				return core.NotFound("menu item on this restaurant's menu", line.MenuItemID)
			}
			if price.PrepTimeMinutes > maxPrep {
				maxPrep = price.PrepTimeMinutes
			}

			item := NewOrderItem(o.ID, i+1, line, price.Amount)
			item.CreatedAt = now
			items = append(items, item)
		}

		o.TotalAmount = Total(items)
		o.EstimatedPrepMinutes = s.estimator.Estimate(snap, maxPrep)

		if err := s.repos.OrderRepo.Create(ctx, o); err != nil {
			return err
		}
		if err := s.repos.OrderItemRepo.CreateBatch(ctx, items); err != nil {
			return err
		}
		if err := s.repos.StatusLogRepo.Append(ctx, &StatusLogEntry{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ToStatus:  o.Status.Code(),
			Note:      req.Note,
			ChangedAt: now,
		}); err != nil {
			return err
		}

		result = &OrderWithItems{Order: *o, Items: items}
		return nil
	})
	if err != nil {
		return nil, core.Storage("cannot create order", err)
	}
	return result, nil
}

// TransitionOrderStatus applies a status change under a row lock and
// records it in the status log within the same transaction.
func (s *Service) TransitionOrderStatus(ctx context.Context, orderID uuid.UUID, target orderstatus.Status, note string) (*Order, error) {
	if target.IsZero() || orderstatus.ByName(target.Name) == nil {
		v := &core.ValidationError{}
		v.Add("status", "unknown status "+target.Name)
		return nil, v
	}
	if len(note) > s.settings.MaxNoteLength {
		v := &core.ValidationError{}
		v.Add("note", "note is too long")
		return nil, v
	}

	var (
		updated  *Order
		previous orderstatus.Status
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.repos.OrderRepo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		previous = o.Status
		if err := Transition(o, target, now); err != nil {
			return err
		}

		if err := s.repos.OrderRepo.UpdateStatus(ctx, o); err != nil {
			return err
		}
		if err := s.repos.StatusLogRepo.Append(ctx, &StatusLogEntry{
			ID:         uuid.New(),
			OrderID:    o.ID,
			FromStatus: previous.Code(),
			ToStatus:   target.Code(),
			Note:       note,
			ChangedAt:  now,
		}); err != nil {
			return err
		}

		updated = o
		return nil
	})
	if err != nil {
		return nil, core.Storage("cannot transition order", err)
	}

	s.logger.Infof("order %s moved from %s to %s", updated.OrderNumber, previous, target)

	s.publishLifecycle(ctx, event.EventOrderStatusChanged, updated, previous.Code(), 0)
	s.afterChange(ctx, updated.RestaurantID)
	return updated, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderWithItems, error) {
	o, err := s.repos.OrderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, core.Storage("cannot get order", err)
	}

	items, err := s.repos.OrderItemRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, core.Storage("cannot list order items", err)
	}
	if items == nil {
		items = []OrderItem{}
	}

	return &OrderWithItems{Order: *o, Items: items}, nil
}

// ListOrders returns the restaurant's orders, newest first. An empty page
// is an empty slice.
func (s *Service) ListOrders(ctx context.Context, restaurantID uuid.UUID, filter Filter, page Page) ([]Order, error) {
	page = s.query.Normalize(page)

	orders, err := s.repos.OrderRepo.List(ctx, restaurantID, filter, page)
	if err != nil {
		return nil, core.Storage("cannot list orders", err)
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

func (s *Service) OrderHistory(ctx context.Context, orderID uuid.UUID) ([]StatusLogEntry, error) {
	if _, err := s.repos.OrderRepo.Get(ctx, orderID); err != nil {
		return nil, core.Storage("cannot get order", err)
	}
	entries, err := s.repos.StatusLogRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, core.Storage("cannot list status log", err)
	}
	if entries == nil {
		entries = []StatusLogEntry{}
	}
	return entries, nil
}

func (s *Service) GetKitchenLoad(ctx context.Context, restaurantID uuid.UUID) (*kitchen.Snapshot, error) {
	return s.estimator.Get(ctx, restaurantID)
}

func (s *Service) ResolveVariantPrice(ctx context.Context, menuItemID, variantID uuid.UUID) (*menu.Price, error) {
	return s.resolver.ResolveVariantPrice(ctx, menuItemID, variantID)
}

// kitchenSnapshot never fails: order creation does not wait on a healthy
// snapshot.
func (s *Service) kitchenSnapshot(ctx context.Context, restaurantID uuid.UUID) *kitchen.Snapshot {
	snap, err := s.estimator.Get(ctx, restaurantID)
	if err != nil {
		s.logger.Errorf("cannot read kitchen load for %s, using defaults: %v", restaurantID, err)
		return s.estimator.DefaultSnapshot(restaurantID)
	}
	return snap
}

func (s *Service) afterChange(ctx context.Context, restaurantID uuid.UUID) {
	if !s.settings.SyncRecompute {
		return
	}
	if _, err := s.estimator.Recompute(ctx, restaurantID); err != nil {
		s.logger.Errorf("cannot recompute kitchen load: %v", err)
	}
}

func (s *Service) publishLifecycle(ctx context.Context, eventType string, o *Order, previous string, itemCount int) {
	if s.publisher == nil {
		return
	}

	evt := event.OrderLifecycleEvent{
		EventType:            eventType,
		OccurredAt:           o.UpdatedAt,
		OrderID:              o.ID.String(),
		OrderNumber:          o.OrderNumber,
		RestaurantID:         o.RestaurantID.String(),
		TableID:              o.TableID.String(),
		Status:               o.Status.Code(),
		PreviousStatus:       previous,
		TotalAmount:          o.TotalAmount.StringFixed(2),
		ItemCount:            itemCount,
		Note:                 o.Note,
		EstimatedPrepMinutes: o.EstimatedPrepMinutes,
		ActualPrepMinutes:    o.ActualPrepMinutes,
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("cannot marshal order lifecycle event", "error", err, "order_id", o.ID.String())
		return
	}
	if err := s.publisher.Publish(ctx, event.OrdersLifecycleTopic, payload); err != nil {
		s.logger.Error("cannot publish order lifecycle event", "error", err, "order_id", o.ID.String())
	}
}
