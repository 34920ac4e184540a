package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/appetiteclub/ordering/internal/core"
)

const (
	defaultURL       = "postgres://localhost:5432/ordering?sslmode=disable"
	defaultTxTimeout = 5 * time.Second
)

type txKey struct{}

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store owns the connection pool. Repositories obtained from it join the
// transaction carried by the context, if any.
type Store struct {
	pool      *pgxpool.Pool
	config    *aqm.Config
	logger    aqm.Logger
	txTimeout time.Duration
}

func NewStore(config *aqm.Config, logger aqm.Logger) *Store {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Store{
		config:    config,
		logger:    logger,
		txTimeout: core.DurationOrDef(config, "db.tx.timeout", defaultTxTimeout),
	}
}

func (s *Store) Start(ctx context.Context) error {
	url := core.StringOrDef(s.config, "db.postgres.url", defaultURL)

	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("cannot parse postgres url: %w", err)
	}
	if maxConns := core.IntOrDef(s.config, "db.postgres.max_conns", 0); maxConns > 0 {
		poolConfig.MaxConns = int32(maxConns)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return fmt.Errorf("cannot connect to postgres: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return fmt.Errorf("cannot ping postgres: %w", err)
	}
	if err := s.attach(ctx, pool); err != nil {
		return err
	}

	s.logger.Infof("Connected to PostgreSQL: %s (max conns %d)", poolConfig.ConnConfig.Host, poolConfig.MaxConns)
	return nil
}

// attach migrates the schema over pool and keeps the pool only when the
// migration succeeds.
func (s *Store) attach(ctx context.Context, pool *pgxpool.Pool) error {
	s.pool = pool
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		s.pool = nil
		return err
	}
	return nil
}

func (s *Store) Stop(ctx context.Context) error {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("Disconnected from PostgreSQL")
	}
	return nil
}

// WithinTx runs fn in a read-committed transaction bounded by
// db.tx.timeout. Nested calls reuse the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return core.Storage("cannot begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return core.Storage("cannot commit transaction", translate(err))
	}
	return nil
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
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
