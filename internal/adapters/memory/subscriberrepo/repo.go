package subscriberrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/ai-newsletter/subscription-api/internal/domain"
	"github.com/ai-newsletter/subscription-api/internal/ports/out/subscriberrepo"
)

// Repo is an in-memory implementation of subscriberrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID      map[domain.SubscriberID]subscriberrepo.Subscriber
	idByEmail map[string]domain.SubscriberID
}

func NewRepo() *Repo {
	return &Repo{
		byID:      make(map[domain.SubscriberID]subscriberrepo.Subscriber),
		idByEmail: make(map[string]domain.SubscriberID),
	}
}

func (r *Repo) Create(ctx context.Context, s subscriberrepo.Subscriber) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ID == "" {
		return subscriberrepo.ErrAlreadyExists // treat empty ID as invalid
	}
	if s.Status == "" {
		s.Status = domain.StatusActive
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; ok {
		return subscriberrepo.ErrAlreadyExists
	}
	// Acts as the unique index on email.
	if _, ok := r.idByEmail[s.Email]; ok {
		return subscriberrepo.ErrEmailTaken
	}

	r.byID[s.ID] = s
	r.idByEmail[s.Email] = s.ID
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (subscriberrepo.Subscriber, error) {
	if err := ctx.Err(); err != nil {
		return subscriberrepo.Subscriber{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByEmail[email]
	if !ok {
		return subscriberrepo.Subscriber{}, subscriberrepo.ErrNotFound
	}
	s, ok := r.byID[id]
	if !ok {
		return subscriberrepo.Subscriber{}, subscriberrepo.ErrNotFound
	}
	return s, nil
}

func (r *Repo) List(ctx context.Context) ([]subscriberrepo.Subscriber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]subscriberrepo.Subscriber, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *Repo) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of stored subscribers.
func (r *Repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func sortNewestFirst(ss []subscriberrepo.Subscriber) {
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].CreatedAt.Equal(ss[j].CreatedAt) {
			return ss[i].ID > ss[j].ID
		}
		return ss[i].CreatedAt.After(ss[j].CreatedAt)
	})
}
