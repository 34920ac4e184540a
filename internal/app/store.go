package app

import (
	"context"
	"fmt"

	"github.com/aquamarinepk/aqm"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/internal/kitchen"
	"github.com/appetiteclub/ordering/internal/memory"
	"github.com/appetiteclub/ordering/internal/menu"
	"github.com/appetiteclub/ordering/internal/mongo"
	"github.com/appetiteclub/ordering/internal/order"
	"github.com/appetiteclub/ordering/internal/postgres"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type store interface {
	core.Transactor
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// backend is one storage driver with every repository the services need.
type backend struct {
	store     store
	menu      menu.Repos
	orders    order.Repos
	snapshots kitchen.SnapshotRepo
	stats     kitchen.OrderStats
}

func openBackend(config *aqm.Config, logger aqm.Logger) (*backend, error) {
	driver := core.StringOrDef(config, "db.driver", DriverPostgres)
	switch driver {
	case DriverPostgres:
		s := postgres.NewStore(config, logger)
		return &backend{
			store: s,
			menu: menu.Repos{
				Restaurants: s.Restaurants(),
				Categories:  s.Categories(),
				Items:       s.MenuItems(),
				Variants:    s.Variants(),
			},
			orders: order.Repos{
				OrderRepo:     s.Orders(),
				OrderItemRepo: s.OrderItems(),
				StatusLogRepo: s.StatusLog(),
				TableRepo:     s.Tables(),
				CustomerRepo:  s.Customers(),
			},
			snapshots: s.Snapshots(),
			stats:     s.Orders(),
		}, nil

	case DriverMongo:
		s := mongo.NewStore(config, logger)
		return &backend{
			store: s,
			menu: menu.Repos{
				Restaurants: s.Restaurants(),
				Categories:  s.Categories(),
				Items:       s.MenuItems(),
				Variants:    s.Variants(),
			},
			orders: order.Repos{
				OrderRepo:     s.Orders(),
				OrderItemRepo: s.OrderItems(),
				StatusLogRepo: s.StatusLog(),
				TableRepo:     s.Tables(),
				CustomerRepo:  s.Customers(),
			},
			snapshots: s.Snapshots(),
			stats:     s.Orders(),
		}, nil

	case DriverMemory:
		s := memory.NewStore()
		return &backend{
			store: s,
			menu: menu.Repos{
				Restaurants: s.Restaurants(),
				Categories:  s.Categories(),
				Items:       s.MenuItems(),
				Variants:    s.Variants(),
			},
			orders: order.Repos{
				OrderRepo:     s.Orders(),
				OrderItemRepo: s.OrderItems(),
				StatusLogRepo: s.StatusLog(),
				TableRepo:     s.Tables(),
				CustomerRepo:  s.Customers(),
			},
			snapshots: s.Snapshots(),
			stats:     s.Orders(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown db.driver %q", driver)
	}
}
