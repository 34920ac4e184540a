package order_test

import (
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/customers"
	"github.com/appetiteclub/ordering/internal/kitchen"
	"github.com/appetiteclub/ordering/internal/memory"
	"github.com/appetiteclub/ordering/internal/menu"
	"github.com/appetiteclub/ordering/internal/order"
	"github.com/appetiteclub/ordering/internal/tables"
	"github.com/appetiteclub/ordering/pkg"
)

var fixtureStart = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

const customerID = "tg:1001"

// fixture is a restaurant with one table, one customer and a small menu,
// served by the in-memory store.
type fixture struct {
	store     *memory.Store
	clock     *core.FixedClock
	publisher *pkg.MemoryPublisher
	menu      *menu.Service
	estimator *kitchen.Estimator
	orders    *order.Service

	restaurantID uuid.UUID
	categoryID   uuid.UUID
	table        tables.Table

	dumplings  menu.MenuItem
	smallDumpl menu.Variant
	largeDumpl menu.Variant
	noodles    menu.MenuItem
	noodleBowl menu.Variant
}

type fixtureOption func(s *order.Settings, d *order.ServiceDeps)

func withSyncRecompute() fixtureOption {
	return func(s *order.Settings, d *order.ServiceDeps) {
		s.SyncRecompute = true
	}
}

func withNumbers(fn order.NumberFunc) fixtureOption {
	return func(s *order.Settings, d *order.ServiceDeps) {
		d.Numbers = fn
	}
}

// withRepos lets a test wrap the store's repositories.
func withRepos(fn func(r *order.Repos)) fixtureOption {
	return func(s *order.Settings, d *order.ServiceDeps) {
		fn(&d.Repos)
	}
}

func newFixture(opts ...fixtureOption) *fixture {
	f := &fixture{
		store:        memory.NewStore(),
		clock:        core.NewFixedClock(fixtureStart),
		publisher:    pkg.NewMemoryPublisher(),
		restaurantID: uuid.New(),
	}

	f.store.PutRestaurant(menu.Restaurant{ID: f.restaurantID, Name: "Lotus", IsActive: true})
	category := menu.Category{
		ID:           uuid.New(),
		RestaurantID: f.restaurantID,
		Name:         map[string]string{"en": "Mains", "es": "Principales"},
		IsActive:     true,
	}
	f.store.PutCategory(category)
	f.categoryID = category.ID

	f.dumplings = f.putItem(category.ID, "Dumplings", 12, 1)
	f.smallDumpl = f.putVariant(f.dumplings.ID, "6 pcs", "4.50", true)
	f.largeDumpl = f.putVariant(f.dumplings.ID, "12 pcs", "8.00", false)

	f.noodles = f.putItem(category.ID, "Noodles", 18, 2)
	f.noodleBowl = f.putVariant(f.noodles.ID, "bowl", "12.00", true)

	f.table = *tables.NewTable(f.restaurantID, "7")
	f.store.PutTable(f.table)
	f.store.PutCustomer(customers.Customer{ID: customerID, DisplayName: "Ana", IsActive: true})

	f.menu = menu.NewService(menu.Repos{
		Restaurants: f.store.Restaurants(),
		Categories:  f.store.Categories(),
		Items:       f.store.MenuItems(),
		Variants:    f.store.Variants(),
	}, f.store, aqm.NewNoopLogger())

	f.estimator = kitchen.NewEstimator(kitchen.EstimatorDeps{
		Snapshots: f.store.Snapshots(),
		Stats:     f.store.Orders(),
		Tx:        f.store,
		Clock:     f.clock,
	}, kitchen.DefaultPolicy(), aqm.NewNoopLogger())

	settings := order.DefaultSettings()
	deps := order.ServiceDeps{
		Repos: order.Repos{
			OrderRepo:     f.store.Orders(),
			OrderItemRepo: f.store.OrderItems(),
			StatusLogRepo: f.store.StatusLog(),
			TableRepo:     f.store.Tables(),
			CustomerRepo:  f.store.Customers(),
		},
		Resolver:  f.menu.Resolver(),
		Estimator: f.estimator,
		Tx:        f.store,
		Clock:     f.clock,
		Publisher: f.publisher,
	}
	for _, opt := range opts {
		opt(&settings, &deps)
	}

	f.orders = order.NewService(deps, settings, order.DefaultQuerySettings(), aqm.NewNoopLogger())
	return f
}

func (f *fixture) putItem(categoryID uuid.UUID, name string, prep, sort int) menu.MenuItem {
	item := menu.NewMenuItem()
	item.EnsureID()
	item.RestaurantID = f.restaurantID
	item.CategoryID = categoryID
	item.Name[menu.DefaultLocale] = name
	item.PrepTimeMinutes = prep
	item.SortOrder = sort
	f.store.PutMenuItem(*item)
	return *item
}

func (f *fixture) putVariant(itemID uuid.UUID, label, price string, isDefault bool) menu.Variant {
	v := menu.Variant{
		ID:          uuid.New(),
		MenuItemID:  itemID,
		Label:       label,
		Price:       decimal.RequireFromString(price),
		IsAvailable: true,
		IsDefault:   isDefault,
	}
	f.store.PutVariant(v)
	return v
}

// twoLineRequest orders 2 small dumplings at 4.50 and 1 noodle bowl at 12.00.
func (f *fixture) twoLineRequest() order.CreateOrderRequest {
	return order.CreateOrderRequest{
		TableID:    f.table.ID,
		CustomerID: customerID,
		Items: []order.ItemRequest{
			{MenuItemID: f.dumplings.ID, VariantID: f.smallDumpl.ID, Quantity: 2, SpiceLevel: order.SpiceMild},
			{MenuItemID: f.noodles.ID, VariantID: f.noodleBowl.ID, Quantity: 1},
		},
	}
}
