package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachReleasesPoolWhenMigrationFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Nothing listens on port 1, so the migration cannot begin.
	pool, err := pgxpool.New(ctx, "postgres://ordering@127.0.0.1:1/ordering?sslmode=disable&connect_timeout=1")
	require.NoError(t, err)

	s := NewStore(nil, aqm.NewNoopLogger())
	err = s.attach(ctx, pool)

	require.Error(t, err)
	assert.Nil(t, s.pool, "a pool whose migration failed must not be kept")
	assert.NoError(t, s.Stop(ctx))
}
