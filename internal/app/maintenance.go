package app

import (
	"context"
	"fmt"

	"github.com/aquamarinepk/aqm"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/kitchen"
	"github.com/appetiteclub/ordering/pkg"
)

// Migrate starts and stops the configured store. Starting applies the
// Postgres schema or creates the Mongo indexes.
func Migrate(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	b, err := openBackend(config, logger)
	if err != nil {
		return err
	}
	if err := b.store.Start(ctx); err != nil {
		return fmt.Errorf("cannot start store: %w", err)
	}
	return b.store.Stop(ctx)
}

// RecomputeLoad rebuilds kitchen load snapshots for the given restaurants,
// or for every active restaurant when ids is empty. No events are sent.
func RecomputeLoad(ctx context.Context, config *aqm.Config, logger aqm.Logger, ids string) error {
	targets, err := warmTargets(ids)
	if err != nil {
		return err
	}

	b, err := openBackend(config, logger)
	if err != nil {
		return err
	}
	if err := b.store.Start(ctx); err != nil {
		return fmt.Errorf("cannot start store: %w", err)
	}
	defer func() {
		if err := b.store.Stop(context.Background()); err != nil {
			logger.Errorf("cannot stop store: %v", err)
		}
	}()

	if len(targets) == 0 {
		targets, err = b.menu.Restaurants.ListActiveIDs(ctx)
		if err != nil {
			return core.Storage("cannot list restaurants", err)
		}
	}

	estimator := kitchen.NewEstimator(kitchen.EstimatorDeps{
		Snapshots: b.snapshots,
		Stats:     b.stats,
		Tx:        b.store,
		Publisher: pkg.NoopPublisher{},
	}, kitchen.PolicyFromConfig(config), logger)

	return estimator.Warm(ctx, targets)
}
