package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/customers"
	"github.com/appetiteclub/ordering/internal/kitchen"
	"github.com/appetiteclub/ordering/internal/menu"
	"github.com/appetiteclub/ordering/internal/order"
	"github.com/appetiteclub/ordering/internal/tables"
	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
)

type txKey struct{}

type state struct {
	restaurants map[uuid.UUID]menu.Restaurant
	categories  map[uuid.UUID]menu.Category
	items       map[uuid.UUID]menu.MenuItem
	variants    map[uuid.UUID]menu.Variant
	tables      map[uuid.UUID]tables.Table
	customers   map[string]customers.Customer
	orders      map[uuid.UUID]order.Order
	numbers     map[string]uuid.UUID
	orderItems  map[uuid.UUID][]order.OrderItem
	statusLog   map[uuid.UUID][]order.StatusLogEntry
	snapshots   map[uuid.UUID]kitchen.Snapshot
}

func newState() *state {
	return &state{
		restaurants: make(map[uuid.UUID]menu.Restaurant),
		categories:  make(map[uuid.UUID]menu.Category),
		items:       make(map[uuid.UUID]menu.MenuItem),
		variants:    make(map[uuid.UUID]menu.Variant),
		tables:      make(map[uuid.UUID]tables.Table),
		customers:   make(map[string]customers.Customer),
		orders:      make(map[uuid.UUID]order.Order),
		numbers:     make(map[string]uuid.UUID),
		orderItems:  make(map[uuid.UUID][]order.OrderItem),
		statusLog:   make(map[uuid.UUID][]order.StatusLogEntry),
		snapshots:   make(map[uuid.UUID]kitchen.Snapshot),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.restaurants {
		c.restaurants[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.variants {
		c.variants[k] = v
	}
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.numbers {
		c.numbers[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = append([]order.OrderItem(nil), v...)
	}
	for k, v := range s.statusLog {
		c.statusLog[k] = append([]order.StatusLogEntry(nil), v...)
	}
	for k, v := range s.snapshots {
		c.snapshots[k] = v
	}
	return c
}

// Store keeps every record in process memory. A transaction works on a
// private copy of the data that replaces the committed copy only when the
// transaction succeeds, so readers outside it never see its writes.
// Transactions are serialized.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) Start(ctx context.Context) error {
	return nil
}

func (s *Store) Stop(ctx context.Context) error {
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txData(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	working := s.data.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, working)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return core.Storage("transaction aborted", err)
	}

	s.mu.Lock()
	s.data = working
	s.mu.Unlock()
	return nil
}

func txData(ctx context.Context) *state {
	d, _ := ctx.Value(txKey{}).(*state)
	return d
}

func (s *Store) read(ctx context.Context, fn func(d *state)) {
	if d := txData(ctx); d != nil {
		fn(d)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// write applies fn to the transaction's copy when ctx carries one. Outside
// a transaction the change commits at once; it waits for any running
// transaction so the commit does not overwrite it.
func (s *Store) write(ctx context.Context, fn func(d *state) error) error {
	if d := txData(ctx); d != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(d)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Seeding helpers.

func (s *Store) PutRestaurant(r menu.Restaurant) {
	_ = s.write(context.Background(), func(d *state) error {
		d.restaurants[r.ID] = r
		return nil
	})
}

func (s *Store) PutCategory(c menu.Category) {
	_ = s.write(context.Background(), func(d *state) error {
		d.categories[c.ID] = c
		return nil
	})
}

func (s *Store) PutMenuItem(m menu.MenuItem) {
	_ = s.write(context.Background(), func(d *state) error {
		d.items[m.ID] = m
		return nil
	})
}

func (s *Store) PutVariant(v menu.Variant) {
	_ = s.write(context.Background(), func(d *state) error {
		d.variants[v.ID] = v
		return nil
	})
}

func (s *Store) PutTable(t tables.Table) {
	_ = s.write(context.Background(), func(d *state) error {
		d.tables[t.ID] = t
		return nil
	})
}

func (s *Store) PutCustomer(c customers.Customer) {
	_ = s.write(context.Background(), func(d *state) error {
		d.customers[c.ID] = c
		return nil
	})
}

// PutOrder stores an order as is, bypassing the creation rules.
func (s *Store) PutOrder(o order.Order, items []order.OrderItem) {
	_ = s.write(context.Background(), func(d *state) error {
		d.orders[o.ID] = o
		d.numbers[o.OrderNumber] = o.ID
		d.orderItems[o.ID] = append([]order.OrderItem(nil), items...)
		return nil
	})
}

func (s *Store) OrderCount() int {
	n := 0
	s.read(context.Background(), func(d *state) { n = len(d.orders) })
	return n
}

func (s *Store) DefaultVariants(menuItemID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	s.read(context.Background(), func(d *state) {
		for _, v := range d.variants {
			if v.MenuItemID == menuItemID && v.IsDefault {
				ids = append(ids, v.ID)
			}
		}
	})
	return ids
}

// Repositories.

type RestaurantRepo struct{ s *Store }
type CategoryRepo struct{ s *Store }
type MenuItemRepo struct{ s *Store }
type VariantRepo struct{ s *Store }
type TableRepo struct{ s *Store }
type CustomerRepo struct{ s *Store }
type OrderRepo struct{ s *Store }
type OrderItemRepo struct{ s *Store }
type StatusLogRepo struct{ s *Store }
type SnapshotRepo struct{ s *Store }

func (s *Store) Restaurants() *RestaurantRepo { return &RestaurantRepo{s} }
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{s} }
func (s *Store) MenuItems() *MenuItemRepo { return &MenuItemRepo{s} }
func (s *Store) Variants() *VariantRepo { return &VariantRepo{s} }
func (s *Store) Tables() *TableRepo { return &TableRepo{s} }
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{s} }
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s} }
func (s *Store) OrderItems() *OrderItemRepo { return &OrderItemRepo{s} }
func (s *Store) StatusLog() *StatusLogRepo { return &StatusLogRepo{s} }
func (s *Store) Snapshots() *SnapshotRepo { return &SnapshotRepo{s} }

func (r *RestaurantRepo) Get(ctx context.Context, id uuid.UUID) (*menu.Restaurant, error) {
	var (
		out menu.Restaurant
		ok  bool
	)
	r.s.read(ctx, func(d *state) { out, ok = d.restaurants[id] })
	if !ok {
		return nil, core.NotFound("restaurant", id)
	}
	return &out, nil
}

func (r *RestaurantRepo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	r.s.read(ctx, func(d *state) {
		for id, rest := range d.restaurants {
			if rest.IsActive {
				ids = append(ids, id)
			}
		}
	})
	return ids, nil
}

func (r *CategoryRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]menu.Category, error) {
	var out []menu.Category
	r.s.read(ctx, func(d *state) {
		for _, c := range d.categories {
			if c.RestaurantID == restaurantID {
				out = append(out, c)
			}
		}
	})
	return out, nil
}

func (r *MenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*menu.MenuItem, error) {
	var (
		out menu.MenuItem
		ok  bool
	)
	r.s.read(ctx, func(d *state) { out, ok = d.items[id] })
	if !ok {
		return nil, core.NotFound("menu item", id)
	}
	return &out, nil
}

// GetForUpdate needs no extra locking: transactions are serialized.
func (r *MenuItemRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*menu.MenuItem, error) {
	return r.Get(ctx, id)
}

func (r *MenuItemRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]menu.MenuItem, error) {
	var out []menu.MenuItem
	r.s.read(ctx, func(d *state) {
		for _, m := range d.items {
			if m.RestaurantID == restaurantID {
				out = append(out, m)
			}
		}
	})
	return out, nil
}

func (r *MenuItemRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	return r.s.write(ctx, func(d *state) error {
		m, ok := d.items[id]
		if !ok {
			return core.NotFound("menu item", id)
		}
		m.IsAvailable = available
		m.UpdatedAt = time.Now().UTC()
		d.items[id] = m
		return nil
	})
}

func (r *VariantRepo) Get(ctx context.Context, id uuid.UUID) (*menu.Variant, error) {
	var (
		out menu.Variant
		ok  bool
	)
	r.s.read(ctx, func(d *state) { out, ok = d.variants[id] })
	if !ok {
		return nil, core.NotFound("variant", id)
	}
	return &out, nil
}

func (r *VariantRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*menu.Variant, error) {
	return r.Get(ctx, id)
}

func (r *VariantRepo) ListByMenuItems(ctx context.Context, menuItemIDs []uuid.UUID) ([]menu.Variant, error) {
	want := make(map[uuid.UUID]bool, len(menuItemIDs))
	for _, id := range menuItemIDs {
		want[id] = true
	}
	var out []menu.Variant
	r.s.read(ctx, func(d *state) {
		for _, v := range d.variants {
			if want[v.MenuItemID] {
				out = append(out, v)
			}
		}
	})
	return out, nil
}

func (r *VariantRepo) ClearDefault(ctx context.Context, menuItemID uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		for id, v := range d.variants {
			if v.MenuItemID == menuItemID && v.IsDefault {
				v.IsDefault = false
				d.variants[id] = v
			}
		}
		return nil
	})
}

func (r *VariantRepo) SetDefault(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(d *state) error {
		v, ok := d.variants[id]
		if !ok {
			return core.NotFound("variant", id)
		}
		for _, other := range d.variants {
			if other.MenuItemID == v.MenuItemID && other.IsDefault && other.ID != id {
				return core.ErrConflict
			}
		}
		v.IsDefault = true
		d.variants[id] = v
		return nil
	})
}

func (r *VariantRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	return r.s.write(ctx, func(d *state) error {
		v, ok := d.variants[id]
		if !ok {
			return core.NotFound("variant", id)
		}
		v.IsAvailable = available
		v.UpdatedAt = time.Now().UTC()
		d.variants[id] = v
		return nil
	})
}

func (r *VariantRepo) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	return r.s.write(ctx, func(d *state) error {
		v, ok := d.variants[id]
		if !ok {
			return core.NotFound("variant", id)
		}
		v.Price = price
		v.UpdatedAt = time.Now().UTC()
		d.variants[id] = v
		return nil
	})
}

func (r *TableRepo) Get(ctx context.Context, id uuid.UUID) (*tables.Table, error) {
	var (
		out tables.Table
		ok  bool
	)
	r.s.read(ctx, func(d *state) { out, ok = d.tables[id] })
	if !ok {
		return nil, core.NotFound("table", id)
	}
	return &out, nil
}

func (r *CustomerRepo) Get(ctx context.Context, id string) (*customers.Customer, error) {
	var (
		out customers.Customer
		ok  bool
	)
	r.s.read(ctx, func(d *state) { out, ok = d.customers[id] })
	if !ok {
		return nil, core.NotFound("customer", id)
	}
	return &out, nil
}

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.s.write(ctx, func(d *state) error {
		if _, taken := d.numbers[o.OrderNumber]; taken {
			return core.ErrConflict
		}
		d.orders[o.ID] = *o
		d.numbers[o.OrderNumber] = o.ID
		return nil
	})
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var (
		out order.Order
		ok  bool
	)
	r.s.read(ctx, func(d *state) { out, ok = d.orders[id] })
	if !ok {
		return nil, core.NotFound("order", id)
	}
	return &out, nil
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.Get(ctx, id)
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, o *order.Order) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.orders[o.ID]; !ok {
			return core.NotFound("order", o.ID)
		}
		d.orders[o.ID] = *o
		return nil
	})
}

func (r *OrderRepo) List(ctx context.Context, restaurantID uuid.UUID, filter order.Filter, page order.Page) ([]order.Order, error) {
	var matched []order.Order
	r.s.read(ctx, func(d *state) {
		for _, o := range d.orders {
			o := o
			if o.RestaurantID == restaurantID && filter.Match(&o) {
				matched = append(matched, o)
			}
		}
	})

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	start := page.Offset()
	if start >= len(matched) {
		return []order.Order{}, nil
	}
	end := start + page.Limit
	if page.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (r *OrderRepo) CountActive(ctx context.Context, restaurantID uuid.UUID) (int, error) {
	n := 0
	r.s.read(ctx, func(d *state) {
		for _, o := range d.orders {
			if o.RestaurantID == restaurantID && o.Status.IsActive() {
				n++
			}
		}
	})
	return n, nil
}

func (r *OrderRepo) RecentPrepMinutes(ctx context.Context, restaurantID uuid.UUID, since time.Time, limit int) ([]int, error) {
	var served []order.Order
	r.s.read(ctx, func(d *state) {
		for _, o := range d.orders {
			if o.RestaurantID != restaurantID || o.ActualPrepMinutes == nil || o.ServedAt == nil {
				continue
			}
			if o.Status != orderstatus.Statuses.Served || o.ServedAt.Before(since) {
				continue
			}
			served = append(served, o)
		}
	})

	sort.Slice(served, func(i, j int) bool {
		return served[i].ServedAt.After(*served[j].ServedAt)
	})
	if limit > 0 && len(served) > limit {
		served = served[:limit]
	}

	out := make([]int, 0, len(served))
	for _, o := range served {
		out = append(out, *o.ActualPrepMinutes)
	}
	return out, nil
}

func (r *OrderItemRepo) CreateBatch(ctx context.Context, items []order.OrderItem) error {
	return r.s.write(ctx, func(d *state) error {
		for _, it := range items {
			if _, ok := d.orders[it.OrderID]; !ok {
				return core.NotFound("order", it.OrderID)
			}
			d.orderItems[it.OrderID] = append(d.orderItems[it.OrderID], it)
		}
		return nil
	})
}

func (r *OrderItemRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.OrderItem, error) {
	var out []order.OrderItem
	r.s.read(ctx, func(d *state) {
		out = append([]order.OrderItem(nil), d.orderItems[orderID]...)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *StatusLogRepo) Append(ctx context.Context, e *order.StatusLogEntry) error {
	return r.s.write(ctx, func(d *state) error {
		d.statusLog[e.OrderID] = append(d.statusLog[e.OrderID], *e)
		return nil
	})
}

func (r *StatusLogRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.StatusLogEntry, error) {
	var out []order.StatusLogEntry
	r.s.read(ctx, func(d *state) {
		out = append([]order.StatusLogEntry(nil), d.statusLog[orderID]...)
	})
	return out, nil
}

func (r *SnapshotRepo) Get(ctx context.Context, restaurantID uuid.UUID) (*kitchen.Snapshot, error) {
	var (
		out kitchen.Snapshot
		ok  bool
	)
	r.s.read(ctx, func(d *state) { out, ok = d.snapshots[restaurantID] })
	if !ok {
		return nil, core.NotFound("kitchen snapshot", restaurantID)
	}
	return &out, nil
}

func (r *SnapshotRepo) Upsert(ctx context.Context, snap *kitchen.Snapshot) error {
	return r.s.write(ctx, func(d *state) error {
		d.snapshots[snap.RestaurantID] = *snap
		return nil
	})
}
