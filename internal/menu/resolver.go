package menu

import (
	"context"

	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
)

// Resolver turns a menu item and variant selection into an order-time price.
type Resolver struct {
	items    MenuItemRepo
	variants VariantRepo
}

func NewResolver(items MenuItemRepo, variants VariantRepo) *Resolver {
	return &Resolver{items: items, variants: variants}
}

// ResolveVariantPrice checks that the item is active and available and that
// the variant belongs to it and is available. It has no side effects.
func (r *Resolver) ResolveVariantPrice(ctx context.Context, menuItemID, variantID uuid.UUID) (*Price, error) {
	item, err := r.items.Get(ctx, menuItemID)
	if err != nil {
		return nil, core.Storage("cannot resolve menu item", err)
	}

	variant, err := r.variants.Get(ctx, variantID)
	if err != nil {
		return nil, core.Storage("cannot resolve variant", err)
	}

	if variant.MenuItemID != item.ID {
		return nil, core.NotFound("variant of menu item "+menuItemID.String(), variantID)
	}

	if !item.IsActive || !item.IsAvailable {
		return nil, core.Unavailable("menu item", menuItemID)
	}

	if !variant.IsAvailable {
		return nil, core.Unavailable("variant", variantID)
	}

	return &Price{
		RestaurantID:    item.RestaurantID,
		MenuItemID:      item.ID,
		VariantID:       variant.ID,
		Amount:          variant.Price,
		PrepTimeMinutes: item.PrepTimeMinutes,
	}, nil
}
