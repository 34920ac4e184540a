package menu

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultLocale = "en"

type Restaurant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Restaurant) GetID() uuid.UUID {
	return r.ID
}

func (r *Restaurant) ResourceType() string {
	return "restaurant"
}

type Category struct {
	ID           uuid.UUID         `json:"id"`
	RestaurantID uuid.UUID         `json:"restaurant_id"`
	Name         map[string]string `json:"name"`
	SortOrder    int               `json:"sort_order"`
	IsActive     bool              `json:"is_active"`
}

type MenuItem struct {
	ID              uuid.UUID         `json:"id"`
	RestaurantID    uuid.UUID         `json:"restaurant_id"`
	CategoryID      uuid.UUID         `json:"category_id"`
	Name            map[string]string `json:"name"`
	Description     map[string]string `json:"description,omitempty"`
	PrepTimeMinutes int               `json:"prep_time_minutes"`
	SortOrder       int               `json:"sort_order"`
	IsAvailable     bool              `json:"is_available"`
	IsActive        bool              `json:"is_active"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Variant is a purchasable size or option of a menu item.
type Variant struct {
	ID          uuid.UUID       `json:"id"`
	MenuItemID  uuid.UUID       `json:"menu_item_id"`
	Label       string          `json:"label"`
	Price       decimal.Decimal `json:"price"`
	SortOrder   int             `json:"sort_order"`
	IsAvailable bool            `json:"is_available"`
	IsDefault   bool            `json:"is_default"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Price is the resolved, order-time price of one variant.
type Price struct {
	RestaurantID    uuid.UUID       `json:"restaurant_id"`
	MenuItemID      uuid.UUID       `json:"menu_item_id"`
	VariantID       uuid.UUID       `json:"variant_id"`
	Amount          decimal.Decimal `json:"amount"`
	PrepTimeMinutes int             `json:"prep_time_minutes"`
}

func NewMenuItem() *MenuItem {
	return &MenuItem{
		Name:        make(map[string]string),
		Description: make(map[string]string),
		IsActive:    true,
		IsAvailable: true,
	}
}

func (m *MenuItem) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "menu/item"
}

func (m *MenuItem) BeforeCreate() {
	m.EnsureID()
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Name == nil {
		m.Name = make(map[string]string)
	}
	if m.Description == nil {
		m.Description = make(map[string]string)
	}
}

func (m *MenuItem) BeforeUpdate() {
	m.UpdatedAt = time.Now().UTC()
}

// NameIn returns the localized name, falling back to the default locale.
func (m *MenuItem) NameIn(locale string) string {
	return localized(m.Name, locale)
}

func (c *Category) NameIn(locale string) string {
	return localized(c.Name, locale)
}

func (v *Variant) EnsureID() {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
}

func (v *Variant) GetID() uuid.UUID {
	return v.ID
}

func (v *Variant) ResourceType() string {
	return "menu/variant"
}

func (v *Variant) BeforeCreate() {
	v.EnsureID()
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	v.Price = v.Price.Round(2)
}

func (v *Variant) BeforeUpdate() {
	v.UpdatedAt = time.Now().UTC()
}

func localized(m map[string]string, locale string) string {
	if s, ok := m[locale]; ok && s != "" {
		return s
	}
	return m[DefaultLocale]
}
