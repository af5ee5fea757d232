package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// TimeLayout is how timestamps are stored: fixed width UTC so text order is time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS subscribers (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'unsubscribed'))
);
CREATE INDEX IF NOT EXISTS idx_subscribers_created_at ON subscribers(created_at DESC, id DESC);
`

// Open opens (creating if needed) the database file at path and applies the schema.
// Pragmas go through the DSN so every pooled connection gets them.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("missing sqlite path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(ON)")
	dsn := "file:" + path + "?" + q.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// ConstraintKind classifies a constraint failure returned by the driver.
type ConstraintKind int

const (
	NotConstraint ConstraintKind = iota
	UniqueConstraint
	PrimaryKeyConstraint
	OtherConstraint
)

// ClassifyConstraint inspects err for a SQLite constraint violation. column, when
// known, names the offending column (e.g. "subscribers.email").
func ClassifyConstraint(err error) (kind ConstraintKind, column string) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return NotConstraint, ""
	}
	msg := se.Error()
	// e.g. "UNIQUE constraint failed: subscribers.email (2067)"
	if i := strings.LastIndex(msg, "failed: "); i >= 0 {
		if f := strings.Fields(msg[i+len("failed: "):]); len(f) > 0 {
			column = strings.TrimSuffix(f[0], ",")
		}
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return UniqueConstraint, column
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return PrimaryKeyConstraint, column
	}
	if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return OtherConstraint, column
	}
	return NotConstraint, ""
}
