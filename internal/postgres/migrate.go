package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrations embed.FS

// migrationLock serializes concurrent start-ups against the same database.
const migrationLock = 727274

func (s *Store) migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("cannot list migrations: %w", err)
	}
	sort.Strings(files)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin migration: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLock); err != nil {
		return fmt.Errorf("cannot lock migrations: %w", err)
	}
	if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    text PRIMARY KEY,
		applied_at timestamptz NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("cannot create schema_migrations: %w", err)
	}

	applied := 0
	for _, file := range files {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", file).Scan(&exists); err != nil {
			return fmt.Errorf("cannot check migration %s: %w", file, err)
		}
		if exists {
			continue
		}

		body, err := migrations.ReadFile(file)
		if err != nil {
			return fmt.Errorf("cannot read migration %s: %w", file, err)
		}
		if _, err := tx.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("cannot apply migration %s: %w", file, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", file); err != nil {
			return fmt.Errorf("cannot record migration %s: %w", file, err)
		}
		applied++
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("cannot commit migrations: %w", err)
	}
	if applied > 0 {
		s.logger.Infof("Applied %d schema migrations", applied)
	}
	return nil
}
