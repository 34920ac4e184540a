package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/middleware"
	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/kitchen"
	"github.com/appetiteclub/ordering/internal/menu"
	"github.com/appetiteclub/ordering/internal/order"
)

const (
	AppName    = "ordering"
	AppVersion = "0.1.0"
)

// App wires the ordering service: storage, event transport, the menu,
// order and kitchen services, and their HTTP and gRPC surfaces.
type App struct {
	config    *aqm.Config
	logger    aqm.Logger
	micro     *aqm.Micro
	backend   *backend
	transport *transport
	estimator *kitchen.Estimator
}

func New(config *aqm.Config, logger aqm.Logger) (*App, error) {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &App{
		config: config,
		logger: logger,
	}, nil
}

// Initialize builds every component. Connections to the database are
// opened later, when the micro starts its lifecycle.
func (a *App) Initialize(ctx context.Context) error {
	b, err := openBackend(a.config, a.logger)
	if err != nil {
		return err
	}
	a.backend = b

	t, err := openTransport(ctx, a.config, a.logger)
	if err != nil {
		return fmt.Errorf("cannot open event transport: %w", err)
	}
	a.transport = t

	settings := order.SettingsFromConfig(a.config)
	if !settings.SyncRecompute && t.subscriber == nil {
		a.logger.Info("No event subscriber available, recomputing kitchen load synchronously")
		settings.SyncRecompute = true
	}

	a.estimator = kitchen.NewEstimator(kitchen.EstimatorDeps{
		Snapshots: b.snapshots,
		Stats:     b.stats,
		Tx:        b.store,
		Publisher: t.publisher,
	}, kitchen.PolicyFromConfig(a.config), a.logger)

	menuService := menu.NewService(b.menu, b.store, a.logger)

	orderService := order.NewService(order.ServiceDeps{
		Repos:     b.orders,
		Resolver:  menuService,
		Estimator: a.estimator,
		Tx:        b.store,
		Publisher: t.publisher,
	}, settings, order.QuerySettingsFromConfig(a.config), a.logger)

	orderHandler := order.NewHandler(orderService, a.logger)
	menuHandler := menu.NewHandler(menuService, a.logger)
	kitchenHandler := kitchen.NewHandler(a.estimator, a.logger)

	health := NewHealthModule(AppName)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      a.logger,
		DisableCORS: true,
	})
	stack = append(stack, middleware.InternalOnly())

	// Store first: everything after it reads from the database.
	lifecycles := []interface{}{b.store}

	if !settings.SyncRecompute {
		lifecycles = append(lifecycles, kitchen.NewLoadSubscriber(t.subscriber, a.estimator, a.logger))
	}

	warmLifecycle := aqm.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			if err := a.warm(ctx); err != nil {
				a.logger.Errorf("cannot warm kitchen load: %v", err)
			}
			return nil
		},
	}
	lifecycles = append(lifecycles, warmLifecycle, t.lifecycle(), health)

	options := []aqm.Option{
		aqm.WithConfig(a.config),
		aqm.WithLogger(a.logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", orderHandler, menuHandler, kitchenHandler),
		aqm.WithGRPCServerModules("grpc.port", health),
		aqm.WithLifecycle(lifecycles...),
		aqm.WithHealthChecks(AppName),
	}

	a.micro = aqm.NewMicro(options...)
	return nil
}

// warm recomputes the kitchen load of the configured restaurants, or of
// every active restaurant when none are configured.
func (a *App) warm(ctx context.Context) error {
	ids, err := warmTargets(core.StringOrDef(a.config, "kitchen.warm.restaurants", ""))
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		ids, err = a.backend.menu.Restaurants.ListActiveIDs(ctx)
		if err != nil {
			return err
		}
	}
	return a.estimator.Warm(ctx, ids)
}

// warmTargets parses a comma separated list of restaurant ids.
func warmTargets(raw string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("invalid restaurant id %q in kitchen.warm.restaurants: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.micro.Run(ctx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}
