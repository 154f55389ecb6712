package dbx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestOpen_AppliesPoolOptions(t *testing.T) {
	db, err := Open(context.Background(), "sqlite", ":memory:", PoolOptions{MaxOpenConns: 3})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.Equal(t, 3, db.Stats().MaxOpenConnections)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "no-such-driver", "", DefaultPoolOptions)
	require.ErrorContains(t, err, "open database")
}

func TestOpen_PingFailure(t *testing.T) {
	_, err := Open(context.Background(), "pgx", "postgres://u:p@127.0.0.1:1/none?sslmode=disable&connect_timeout=1", PoolOptions{})
	require.ErrorContains(t, err, "ping database")
}
