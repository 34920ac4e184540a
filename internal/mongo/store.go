package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/ordering/internal/core"
)

const (
	defaultURL       = "mongodb://localhost:27017/?replicaSet=rs0"
	defaultDatabase  = "appetite_ordering"
	defaultTxTimeout = 5 * time.Second
)

const (
	restaurantsColl = "restaurants"
	categoriesColl  = "categories"
	menuItemsColl   = "menu_items"
	variantsColl    = "menu_item_variants"
	tablesColl      = "tables"
	customersColl   = "customers"
	ordersColl      = "orders"
	orderItemsColl  = "order_items"
	statusLogColl   = "order_status_log"
	snapshotsColl   = "kitchen_load_snapshots"
)

// Store holds the client and database shared by every repository.
// Transactions need a replica set deployment.
type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	logger    aqm.Logger
	config    *aqm.Config
	txTimeout time.Duration
}

func NewStore(config *aqm.Config, logger aqm.Logger) *Store {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Store{
		logger:    logger,
		config:    config,
		txTimeout: core.DurationOrDef(config, "db.tx.timeout", defaultTxTimeout),
	}
}

func (s *Store) Start(ctx context.Context) error {
	connString := core.StringOrDef(s.config, "db.mongo.url", defaultURL)
	dbName := core.StringOrDef(s.config, "db.mongo.name", defaultDatabase)

	clientOptions := options.Client().ApplyURI(connString).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	s.client = client
	s.db = client.Database(dbName)

	if err := s.ensureIndexes(ctx); err != nil {
		return err
	}

	s.logger.Infof("Connected to MongoDB: %s, database: %s", connString, dbName)
	return nil
}

func (s *Store) Stop(ctx context.Context) error {
	if s.client != nil {
		if err := s.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		s.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (s *Store) GetDatabase() *mongo.Database {
	return s.db
}

// WithinTx runs fn in a session transaction. Repository calls made with
// the context passed to fn use that session. Transient errors are retried
// by the driver, so fn may run more than once.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	session, err := s.client.StartSession()
	if err != nil {
		return core.Storage("cannot start session", err)
	}
	defer session.EndSession(context.Background())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil {
		return core.Storage("transaction failed", translate(err))
	}
	return nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		menuItemsColl: {
			{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "sort_order", Value: 1}}},
		},
		variantsColl: {
			{Keys: bson.D{{Key: "menu_item_id", Value: 1}, {Key: "sort_order", Value: 1}}},
			{
				Keys: bson.D{{Key: "menu_item_id", Value: 1}},
				Options: options.Index().
					SetName("one_default_per_item").
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "is_default", Value: true}}),
			},
		},
		categoriesColl: {
			{Keys: bson.D{{Key: "restaurant_id", Value: 1}}},
		},
		ordersColl: {
			{Keys: bson.D{{Key: "order_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "status", Value: 1}, {Key: "served_at", Value: -1}}},
		},
		orderItemsColl: {
			{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "position", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		statusLogColl: {
			{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "seq", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("cannot create %s indexes: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// translate maps duplicate keys to core.ErrConflict.
func translate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("duplicate key: %w", core.ErrConflict)
	}
	return err
}

func notFoundOr(err error, what string, id any, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.NotFound(what, id)
	}
	return core.Storage(op, translate(err))
}

func (s *Store) Restaurants() *RestaurantRepo { return &RestaurantRepo{s} }
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{s} }
func (s *Store) MenuItems() *MenuItemRepo { return &MenuItemRepo{s} }
func (s *Store) Variants() *VariantRepo { return &VariantRepo{s} }
func (s *Store) Tables() *TableRepo { return &TableRepo{s} }
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{s} }
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s} }
func (s *Store) OrderItems() *OrderItemRepo { return &OrderItemRepo{s} }
func (s *Store) StatusLog() *StatusLogRepo { return &StatusLogRepo{s} }
func (s *Store) Snapshots() *SnapshotRepo { return &SnapshotRepo{s} }
