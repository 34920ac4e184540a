package menu

import (
	"context"
	"sort"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/ordering/internal/core"
)

type Service struct {
	repos    Repos
	tx       core.Transactor
	resolver *Resolver
	logger   aqm.Logger
}

func NewService(repos Repos, tx core.Transactor, logger aqm.Logger) *Service {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Service{
		repos:    repos,
		tx:       tx,
		resolver: NewResolver(repos.Items, repos.Variants),
		logger:   logger,
	}
}

func (s *Service) Resolver() *Resolver {
	return s.resolver
}

func (s *Service) ResolveVariantPrice(ctx context.Context, menuItemID, variantID uuid.UUID) (*Price, error) {
	return s.resolver.ResolveVariantPrice(ctx, menuItemID, variantID)
}

// SetDefaultVariant makes variantID the only default variant of its item.
// The parent item row is locked first so concurrent calls for the same item
// serialize on it.
func (s *Service) SetDefaultVariant(ctx context.Context, menuItemID, variantID uuid.UUID) (*Variant, error) {
	var result *Variant
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Items.GetForUpdate(ctx, menuItemID); err != nil {
			return err
		}

		variant, err := s.repos.Variants.GetForUpdate(ctx, variantID)
		if err != nil {
			return err
		}
		if variant.MenuItemID != menuItemID {
			return core.NotFound("variant of menu item "+menuItemID.String(), variantID)
		}
		if !variant.IsAvailable {
			return core.Unavailable("variant", variantID)
		}

		if err := s.repos.Variants.ClearDefault(ctx, menuItemID); err != nil {
			return err
		}
		if err := s.repos.Variants.SetDefault(ctx, variantID); err != nil {
			return err
		}

		variant.IsDefault = true
		result = variant
		return nil
	})
	if err != nil {
		return nil, core.Storage("cannot set default variant", err)
	}

	s.logger.Infof("variant %s is now default for menu item %s", variantID, menuItemID)
	return result, nil
}

// ToggleItemAvailability flips the item's availability flag. The current
// value is read under lock and its negation written back in one transaction.
func (s *Service) ToggleItemAvailability(ctx context.Context, menuItemID uuid.UUID) (*MenuItem, error) {
	var result *MenuItem
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.repos.Items.GetForUpdate(ctx, menuItemID)
		if err != nil {
			return err
		}

		item.IsAvailable = !item.IsAvailable
		if err := s.repos.Items.SetAvailability(ctx, item.ID, item.IsAvailable); err != nil {
			return err
		}

		result = item
		return nil
	})
	if err != nil {
		return nil, core.Storage("cannot toggle menu item availability", err)
	}
	return result, nil
}

func (s *Service) ToggleVariantAvailability(ctx context.Context, menuItemID, variantID uuid.UUID) (*Variant, error) {
	var result *Variant
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		variant, err := s.repos.Variants.GetForUpdate(ctx, variantID)
		if err != nil {
			return err
		}
		if variant.MenuItemID != menuItemID {
			return core.NotFound("variant of menu item "+menuItemID.String(), variantID)
		}

		variant.IsAvailable = !variant.IsAvailable
		if err := s.repos.Variants.SetAvailability(ctx, variant.ID, variant.IsAvailable); err != nil {
			return err
		}

		result = variant
		return nil
	})
	if err != nil {
		return nil, core.Storage("cannot toggle variant availability", err)
	}
	return result, nil
}

// UpdateVariantPrice changes the current price. Existing orders keep the
// unit price they were created with.
func (s *Service) UpdateVariantPrice(ctx context.Context, menuItemID, variantID uuid.UUID, price decimal.Decimal) (*Variant, error) {
	if price.IsNegative() {
		v := &core.ValidationError{}
		v.Add("price", "price must not be negative")
		return nil, v
	}
	price = price.Round(2)

	var result *Variant
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		variant, err := s.repos.Variants.GetForUpdate(ctx, variantID)
		if err != nil {
			return err
		}
		if variant.MenuItemID != menuItemID {
			return core.NotFound("variant of menu item "+menuItemID.String(), variantID)
		}
		if err := s.repos.Variants.UpdatePrice(ctx, variantID, price); err != nil {
			return err
		}
		variant.Price = price
		result = variant
		return nil
	})
	if err != nil {
		return nil, core.Storage("cannot update variant price", err)
	}
	return result, nil
}

// GetRestaurantMenu assembles the orderable menu of a restaurant: active
// categories holding active, available items with their available variants.
func (s *Service) GetRestaurantMenu(ctx context.Context, restaurantID uuid.UUID) (*RestaurantMenu, error) {
	restaurant, err := s.repos.Restaurants.Get(ctx, restaurantID)
	if err != nil {
		return nil, core.Storage("cannot load restaurant", err)
	}
	if !restaurant.IsActive {
		return nil, core.NotFound("restaurant", restaurantID)
	}

	categories, err := s.repos.Categories.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, core.Storage("cannot list categories", err)
	}

	items, err := s.repos.Items.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, core.Storage("cannot list menu items", err)
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.IsActive && item.IsAvailable {
			ids = append(ids, item.ID)
		}
	}

	variants, err := s.repos.Variants.ListByMenuItems(ctx, ids)
	if err != nil {
		return nil, core.Storage("cannot list variants", err)
	}

	return BuildRestaurantMenu(*restaurant, categories, items, variants), nil
}

type RestaurantMenu struct {
	Restaurant Restaurant     `json:"restaurant"`
	Categories []CategoryMenu `json:"categories"`
}

type CategoryMenu struct {
	Category
	Items []ItemMenu `json:"items"`
}

type ItemMenu struct {
	MenuItem
	Variants []Variant `json:"variants"`
}

// BuildRestaurantMenu filters and orders raw rows into the menu projection.
// Items without any available variant are left out.
func BuildRestaurantMenu(restaurant Restaurant, categories []Category, items []MenuItem, variants []Variant) *RestaurantMenu {
	byItem := make(map[uuid.UUID][]Variant)
	for _, v := range variants {
		if v.IsAvailable {
			byItem[v.MenuItemID] = append(byItem[v.MenuItemID], v)
		}
	}

	byCategory := make(map[uuid.UUID][]ItemMenu)
	for _, item := range items {
		if !item.IsActive || !item.IsAvailable {
			continue
		}
		vs := byItem[item.ID]
		if len(vs) == 0 {
			continue
		}
		sort.SliceStable(vs, func(i, j int) bool {
			if vs[i].SortOrder != vs[j].SortOrder {
				return vs[i].SortOrder < vs[j].SortOrder
			}
			return vs[i].Price.LessThan(vs[j].Price)
		})
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], ItemMenu{MenuItem: item, Variants: vs})
	}

	active := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.IsActive {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].SortOrder != active[j].SortOrder {
			return active[i].SortOrder < active[j].SortOrder
		}
		return active[i].NameIn(DefaultLocale) < active[j].NameIn(DefaultLocale)
	})

	result := &RestaurantMenu{Restaurant: restaurant, Categories: make([]CategoryMenu, 0, len(active))}
	for _, c := range active {
		its := byCategory[c.ID]
		sort.SliceStable(its, func(i, j int) bool {
			if its[i].SortOrder != its[j].SortOrder {
				return its[i].SortOrder < its[j].SortOrder
			}
			return its[i].NameIn(DefaultLocale) < its[j].NameIn(DefaultLocale)
		})
		if its == nil {
			its = []ItemMenu{}
		}
		result.Categories = append(result.Categories, CategoryMenu{Category: c, Items: its})
	}
	return result
}
