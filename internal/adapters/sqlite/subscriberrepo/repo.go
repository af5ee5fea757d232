package subscriberrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ai-newsletter/subscription-api/internal/adapters/sqlite"
	"github.com/ai-newsletter/subscription-api/internal/domain"
	"github.com/ai-newsletter/subscription-api/internal/ports/out/subscriberrepo"
)

// Repo is a SQLite implementation of subscriberrepo.Repository.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, s subscriberrepo.Subscriber) error {
	if r.db == nil {
		return errors.New("nil sqlite db")
	}
	if s.ID == "" {
		return subscriberrepo.ErrAlreadyExists
	}
	status := s.Status
	if status == "" {
		status = domain.StatusActive
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers (id, email, created_at, status)
		VALUES (?, ?, ?, ?)
	`, string(s.ID), s.Email, s.CreatedAt.UTC().Format(sqlite.TimeLayout), string(status))
	if err != nil {
		kind, column := sqlite.ClassifyConstraint(err)
		switch {
		case column == "subscribers.email":
			return subscriberrepo.ErrEmailTaken
		case column == "subscribers.id", kind == sqlite.PrimaryKeyConstraint:
			return subscriberrepo.ErrAlreadyExists
		case kind == sqlite.UniqueConstraint:
			return subscriberrepo.ErrEmailTaken
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (subscriberrepo.Subscriber, error) {
	if r.db == nil {
		return subscriberrepo.Subscriber{}, errors.New("nil sqlite db")
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, created_at, status
		FROM subscribers
		WHERE email = ?
	`, email)
	return scanSubscriber(row)
}

func (r *Repo) List(ctx context.Context) ([]subscriberrepo.Subscriber, error) {
	if r.db == nil {
		return nil, errors.New("nil sqlite db")
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, created_at, status
		FROM subscribers
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	out := make([]subscriberrepo.Subscriber, 0)
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Ping(ctx context.Context) error {
	if r.db == nil {
		return errors.New("nil sqlite db")
	}
	return r.db.PingContext(ctx)
}

func scanSubscriber(row interface {
	Scan(dest ...any) error
}) (subscriberrepo.Subscriber, error) {
	var id, email, createdAt, status string
	if err := row.Scan(&id, &email, &createdAt, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return subscriberrepo.Subscriber{}, subscriberrepo.ErrNotFound
		}
		return subscriberrepo.Subscriber{}, err
	}
	ts, err := time.Parse(sqlite.TimeLayout, createdAt)
	if err != nil {
		return subscriberrepo.Subscriber{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return subscriberrepo.Subscriber{
		ID:        domain.SubscriberID(id),
		Email:     email,
		Status:    domain.SubscriberStatus(status),
		CreatedAt: ts.UTC(),
	}, nil
}
