package menu

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/ordering/internal/core"
)

// MockMenuItemRepo is a test mock for MenuItemRepo
type MockMenuItemRepo struct {
	items               map[uuid.UUID]*MenuItem
	GetFunc             func(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	SetAvailabilityFunc func(ctx context.Context, id uuid.UUID, available bool) error
}

func NewMockMenuItemRepo(items ...*MenuItem) *MockMenuItemRepo {
	m := &MockMenuItemRepo{items: make(map[uuid.UUID]*MenuItem)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *MockMenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	it, ok := m.items[id]
	if !ok {
		return nil, core.NotFound("menu item", id)
	}
	cp := *it
	return &cp, nil
}

func (m *MockMenuItemRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
	return m.Get(ctx, id)
}

func (m *MockMenuItemRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error) {
	var out []MenuItem
	for _, it := range m.items {
		if it.RestaurantID == restaurantID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *MockMenuItemRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	if m.SetAvailabilityFunc != nil {
		return m.SetAvailabilityFunc(ctx, id, available)
	}
	it, ok := m.items[id]
	if !ok {
		return core.NotFound("menu item", id)
	}
	it.IsAvailable = available
	return nil
}

// MockVariantRepo is a test mock for VariantRepo
type MockVariantRepo struct {
	variants map[uuid.UUID]*Variant
	GetFunc  func(ctx context.Context, id uuid.UUID) (*Variant, error)
}

func NewMockVariantRepo(variants ...*Variant) *MockVariantRepo {
	m := &MockVariantRepo{variants: make(map[uuid.UUID]*Variant)}
	for _, v := range variants {
		m.variants[v.ID] = v
	}
	return m
}

func (m *MockVariantRepo) Get(ctx context.Context, id uuid.UUID) (*Variant, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	v, ok := m.variants[id]
	if !ok {
		return nil, core.NotFound("variant", id)
	}
	cp := *v
	return &cp, nil
}

func (m *MockVariantRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Variant, error) {
	return m.Get(ctx, id)
}

func (m *MockVariantRepo) ListByMenuItems(ctx context.Context, ids []uuid.UUID) ([]Variant, error) {
	want := make(map[uuid.UUID]bool)
	for _, id := range ids {
		want[id] = true
	}
	var out []Variant
	for _, v := range m.variants {
		if want[v.MenuItemID] {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *MockVariantRepo) ClearDefault(ctx context.Context, menuItemID uuid.UUID) error {
	for _, v := range m.variants {
		if v.MenuItemID == menuItemID {
			v.IsDefault = false
		}
	}
	return nil
}

func (m *MockVariantRepo) SetDefault(ctx context.Context, id uuid.UUID) error {
	v, ok := m.variants[id]
	if !ok {
		return core.NotFound("variant", id)
	}
	v.IsDefault = true
	return nil
}

func (m *MockVariantRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	v, ok := m.variants[id]
	if !ok {
		return core.NotFound("variant", id)
	}
	v.IsAvailable = available
	return nil
}

func (m *MockVariantRepo) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	v, ok := m.variants[id]
	if !ok {
		return core.NotFound("variant", id)
	}
	v.Price = price
	return nil
}

// MockRestaurantRepo is a test mock for RestaurantRepo
type MockRestaurantRepo struct {
	restaurants map[uuid.UUID]*Restaurant
}

func NewMockRestaurantRepo(rs ...*Restaurant) *MockRestaurantRepo {
	m := &MockRestaurantRepo{restaurants: make(map[uuid.UUID]*Restaurant)}
	for _, r := range rs {
		m.restaurants[r.ID] = r
	}
	return m
}

func (m *MockRestaurantRepo) Get(ctx context.Context, id uuid.UUID) (*Restaurant, error) {
	r, ok := m.restaurants[id]
	if !ok {
		return nil, core.NotFound("restaurant", id)
	}
	return r, nil
}

func (m *MockRestaurantRepo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, r := range m.restaurants {
		if r.IsActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// MockCategoryRepo is a test mock for CategoryRepo
type MockCategoryRepo struct {
	categories []Category
}

func (m *MockCategoryRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]Category, error) {
	var out []Category
	for _, c := range m.categories {
		if c.RestaurantID == restaurantID {
			out = append(out, c)
		}
	}
	return out, nil
}

// MockTransactor runs fn directly and reports how many transactions ran.
type MockTransactor struct {
	Calls int
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}
