package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationFiles returns the embedded migrations rooted at their directory.
func MigrationFiles() fs.FS {
	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		panic(err)
	}
	return fsys
}

// Migrate applies the embedded goose migrations that have not run yet.
// Concurrent callers are serialized by a postgres advisory lock held for the
// whole run, including creation of the version table.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	locker, err := lock.NewPostgresSessionLocker(lock.WithLockTimeout(1, 60))
	if err != nil {
		return fmt.Errorf("session locker: %w", err)
	}

	// Closing the provider closes this *sql.DB only; the pool stays open.
	provider, err := goose.NewProvider(goose.DialectPostgres, stdlib.OpenDBFromPool(pool), MigrationFiles(),
		goose.WithSessionLocker(locker),
	)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	defer provider.Close()

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		log.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.String("path", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}
	return nil
}
