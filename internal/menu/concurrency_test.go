package menu_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appetiteclub/ordering/internal/memory"
	"github.com/appetiteclub/ordering/internal/menu"
)

// TestSetDefaultVariantConcurrently checks the service against the memory
// store, which serializes transactions, so it cannot catch a race in the
// SQL or document backends. There the single default is held by the
// FOR UPDATE row lock with the menu_item_variants_one_default partial index
// (postgres) and by the item version bump with the one_default_per_item
// index (mongo).
func TestSetDefaultVariantConcurrently(t *testing.T) {
	store := memory.NewStore()
	restaurantID := uuid.New()

	item := menu.NewMenuItem()
	item.EnsureID()
	item.RestaurantID = restaurantID
	store.PutMenuItem(*item)

	var variantIDs []uuid.UUID
	for i := 0; i < 8; i++ {
		v := menu.Variant{
			ID:          uuid.New(),
			MenuItemID:  item.ID,
			Label:       "size",
			Price:       decimal.NewFromInt(int64(5 + i)),
			IsAvailable: true,
			IsDefault:   i == 0,
		}
		store.PutVariant(v)
		variantIDs = append(variantIDs, v.ID)
	}

	repos := menu.Repos{
		Restaurants: store.Restaurants(),
		Categories:  store.Categories(),
		Items:       store.MenuItems(),
		Variants:    store.Variants(),
	}
	svc := menu.NewService(repos, store, aqm.NewNoopLogger())

	var wg sync.WaitGroup
	errs := make(chan error, len(variantIDs)*4)
	for round := 0; round < 4; round++ {
		for _, id := range variantIDs {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				if _, err := svc.SetDefaultVariant(context.Background(), item.ID, id); err != nil {
					errs <- err
				}
			}(id)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	defaults := store.DefaultVariants(item.ID)
	assert.Len(t, defaults, 1, "exactly one default variant expected")
}
