package subscriberrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/ai-newsletter/subscription-api/internal/adapters/postgres"
	"github.com/ai-newsletter/subscription-api/internal/domain"
	"github.com/ai-newsletter/subscription-api/internal/ports/out/subscriberrepo"
)

const (
	emailUniqueConstraint = "subscribers_email_key"
	primaryKeyConstraint  = "subscribers_pkey"
)

// Repo is a Postgres implementation of subscriberrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, s subscriberrepo.Subscriber) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(s.ID))
	if err != nil {
		return fmt.Errorf("invalid subscriber id: %w", err)
	}
	status := s.Status
	if status == "" {
		status = domain.StatusActive
	}

	// Single statement: the unique constraint decides concurrent races.
	_, err = r.pool.Exec(ctx, `
		INSERT INTO subscribers (id, email, created_at, status)
		VALUES ($1, $2, $3, $4)
	`,
		id,
		s.Email,
		s.CreatedAt.UTC(),
		string(status),
	)
	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err, emailUniqueConstraint):
			return subscriberrepo.ErrEmailTaken
		case postgres.IsUniqueViolation(err, primaryKeyConstraint):
			return subscriberrepo.ErrAlreadyExists
		default:
			return fmt.Errorf("insert subscriber: %w", err)
		}
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (subscriberrepo.Subscriber, error) {
	if r.pool == nil {
		return subscriberrepo.Subscriber{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, created_at, status
		FROM subscribers
		WHERE email = $1
	`, email)
	return scanSubscriber(row)
}

func (r *Repo) List(ctx context.Context) ([]subscriberrepo.Subscriber, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
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
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	return r.pool.Ping(ctx)
}

func scanSubscriber(row interface {
	Scan(dest ...any) error
}) (subscriberrepo.Subscriber, error) {
	var (
		id        uuid.UUID
		email     string
		createdAt time.Time
		status    string
	)
	if err := row.Scan(&id, &email, &createdAt, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return subscriberrepo.Subscriber{}, subscriberrepo.ErrNotFound
		}
		return subscriberrepo.Subscriber{}, err
	}
	return subscriberrepo.Subscriber{
		ID:        domain.SubscriberID(id.String()),
		Email:     email,
		Status:    domain.SubscriberStatus(status),
		CreatedAt: createdAt.UTC(),
	}, nil
}
