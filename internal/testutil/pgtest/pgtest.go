// Package pgtest connects tests to the database named by TEST_DATABASE.
// Tests calling into it are skipped when the variable is unset.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

const EnvDatabase = "TEST_DATABASE"

// ParseConfig returns a connection config for the test database with
// server notices logged to t.
func ParseConfig(t testing.TB) *pgx.ConnConfig {
	t.Helper()
	connString := os.Getenv(EnvDatabase)
	if connString == "" {
		t.Skipf("%s not set", EnvDatabase)
	}

	config, err := pgx.ParseConfig(connString)
	require.NoError(t, err)

	config.OnNotice = func(_ *pgconn.PgConn, n *pgconn.Notice) {
		t.Logf("PostgreSQL %s: %s", n.Severity, n.Message)
	}
	return config
}

// Connect opens a connection closed at the end of the test.
func Connect(ctx context.Context, t testing.TB) *pgx.Conn {
	t.Helper()
	conn, err := pgx.ConnectConfig(ctx, ParseConfig(t))
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, conn.Close(ctx))
	})
	return conn
}
