package postgres_test

import (
	"context"
	"io/fs"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	postgres "github.com/ai-newsletter/subscription-api/internal/adapters/postgres"
	"github.com/ai-newsletter/subscription-api/internal/adapters/postgres/testutil"
)

func TestMigrations_AreGooseAnnotated(t *testing.T) {
	t.Parallel()

	names, err := fs.Glob(postgres.MigrationFiles(), "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 {
		t.Fatalf("no embedded migrations")
	}
	for _, name := range names {
		body, err := fs.ReadFile(postgres.MigrationFiles(), name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				t.Fatalf("%s is missing %q", name, marker)
			}
		}
	}
}

func TestMigrate_ConcurrentRunsAreSerialized(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- postgres.Migrate(ctx, pool, zaptest.NewLogger(t))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Migrate: %v", err)
		}
	}

	var version int64
	if err := pool.QueryRow(ctx, `SELECT max(version_id) FROM goose_db_version WHERE is_applied`).Scan(&version); err != nil {
		t.Fatalf("read goose_db_version: %v", err)
	}
	if version != 1 {
		t.Fatalf("version=%d, want 1", version)
	}
	if _, err := pool.Exec(ctx, `SELECT id, email, created_at, status FROM subscribers LIMIT 1`); err != nil {
		t.Fatalf("subscribers table: %v", err)
	}
}
