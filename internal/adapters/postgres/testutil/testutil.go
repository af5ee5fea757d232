package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap/zaptest"

	postgres "github.com/ai-newsletter/subscription-api/internal/adapters/postgres"
)

// OpenMigratedPool connects to DATABASE_URL, applies migrations and empties the
// subscribers table. The test is skipped when DATABASE_URL is unset.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping postgres test")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{MaxConns: 4, MinConns: 1})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.Migrate(ctx, pool, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE subscribers`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}
