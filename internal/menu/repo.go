package menu

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repositories return core.ErrNotFound for missing rows. The ForUpdate
// variants lock the row for the rest of the surrounding transaction.

type RestaurantRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*Restaurant, error)
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type CategoryRepo interface {
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]Category, error)
}

type MenuItemRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

type VariantRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*Variant, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Variant, error)
	ListByMenuItems(ctx context.Context, menuItemIDs []uuid.UUID) ([]Variant, error)
	ClearDefault(ctx context.Context, menuItemID uuid.UUID) error
	SetDefault(ctx context.Context, id uuid.UUID) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error
}

type Repos struct {
	Restaurants RestaurantRepo
	Categories  CategoryRepo
	Items       MenuItemRepo
	Variants    VariantRepo
}
