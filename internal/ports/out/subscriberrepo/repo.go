package subscriberrepo

import (
	"context"
	"time"

	"github.com/ai-newsletter/subscription-api/internal/domain"
)

// Subscriber is the persistence shape used by the subscriber repository.
// It's an internal record, not an HTTP DTO.
type Subscriber struct {
	ID     domain.SubscriberID
	Email  string
	Status domain.SubscriberStatus

	CreatedAt time.Time
}

// Repository provides access to persisted subscribers.
//
// Email matching is exact (case-sensitive); the store must enforce uniqueness on email so
// that two concurrent Creates for the same address cannot both succeed.
//
// Result ordering expectations:
// - List returns subscribers ordered by CreatedAt descending, then ID descending.
type Repository interface {
	Create(ctx context.Context, s Subscriber) error

	GetByEmail(ctx context.Context, email string) (Subscriber, error)
	List(ctx context.Context) ([]Subscriber, error)

	// Ping reports whether the underlying store is reachable.
	Ping(ctx context.Context) error
}
