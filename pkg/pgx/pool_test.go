package pgx

import (
	"context"
	"testing"

	"github.com/edgeflare/rowpub/internal/testutil/pgtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPools(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid connection string", func(t *testing.T) {
		pools := NewPools()
		defer pools.Close()
		_, err := pools.Get(ctx, "postgres://%zz")
		assert.Error(t, err)
		assert.Zero(t, pools.Len())
	})

	t.Run("closed", func(t *testing.T) {
		pools := NewPools()
		pools.Close()
		_, err := pools.Get(ctx, "postgres://localhost/db")
		assert.ErrorIs(t, err, ErrPoolsClosed)
	})

	t.Run("shared", func(t *testing.T) {
		connString := pgtest.ParseConfig(t).ConnString()

		pools := NewPools()
		defer pools.Close()

		first, err := pools.Get(ctx, connString)
		require.NoError(t, err)
		second, err := pools.Get(ctx, connString)
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, 1, pools.Len())
	})
}
