package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ai-newsletter/subscription-api/internal/domain"
	clockport "github.com/ai-newsletter/subscription-api/internal/ports/out/clock"
	"github.com/ai-newsletter/subscription-api/internal/ports/out/submitguard"
	"github.com/ai-newsletter/subscription-api/internal/ports/out/subscriberrepo"
)

const (
	defaultGuardWait = 2 * time.Second
	guardPollEvery   = 25 * time.Millisecond
)

type Service struct {
	repo  subscriberrepo.Repository
	clk   clockport.Clock
	guard submitguard.Guard
	log   *zap.Logger

	// guardWait bounds how long a submission waits on another in-flight
	// submission for the same address before going to the store unguarded.
	guardWait time.Duration

	newSubscriberID func() domain.SubscriberID
}

// Option customizes a Service.
type Option func(*Service)

// WithGuard installs a submission guard. The default never blocks.
func WithGuard(g submitguard.Guard) Option {
	return func(s *Service) {
		if g != nil {
			s.guard = g
		}
	}
}

// WithGuardWait sets how long a submission waits for a held guard.
func WithGuardWait(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.guardWait = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(repo subscriberrepo.Repository, clk clockport.Clock, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		clk:   clk,
		guard: submitguard.Noop{},
		log:   zap.NewNop(),

		guardWait: defaultGuardWait,
		newSubscriberID: func() domain.SubscriberID {
			return domain.SubscriberID(uuid.NewString())
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe validates email and records a new active subscriber.
//
// Outcomes:
// - 400 INVALID_EMAIL when the address fails the syntax check (no store access)
// - 409 ALREADY_SUBSCRIBED only when the store holds the address (pre-check or unique constraint)
// - 500 STORE_FAILURE for any other store error
func (s *Service) Subscribe(ctx context.Context, email string) (domain.Subscriber, error) {
	if !domain.LooksLikeEmail(email) {
		return domain.Subscriber{}, invalidEmail()
	}

	lease, held, err := s.acquireGuard(ctx, email)
	if err != nil {
		return domain.Subscriber{}, err
	}

	sub, err := s.subscribe(ctx, email)
	if err != nil && held {
		// Keep the lock only on success; any failure lets the next attempt through.
		if rerr := s.guard.Release(context.WithoutCancel(ctx), email, lease); rerr != nil {
			s.log.Warn("submit guard release failed", zap.String("email", email), zap.Error(rerr))
		}
	}
	return sub, err
}

// acquireGuard takes the submission guard for email. While another request holds it,
// the store is polled: a stored record ends the wait with the conflict outcome, a
// released guard is taken over. Once guardWait elapses, or if the guard itself fails,
// the caller proceeds unguarded and the store's unique constraint decides.
func (s *Service) acquireGuard(ctx context.Context, email string) (submitguard.Lease, bool, error) {
	deadline := time.Now().Add(s.guardWait)
	for {
		lease, held, err := s.guard.Acquire(ctx, email)
		if err != nil {
			s.log.Warn("submit guard unavailable, continuing", zap.String("email", email), zap.Error(err))
			return "", false, nil
		}
		if held {
			return lease, true, nil
		}

		if _, err := s.repo.GetByEmail(ctx, email); err == nil {
			return "", false, alreadySubscribed()
		} else if !errors.Is(err, subscriberrepo.ErrNotFound) {
			s.log.Error("subscriber lookup failed", zap.String("email", email), zap.Error(err))
			return "", false, storeFailure(MsgSubscribeFailed, err)
		}

		if !time.Now().Before(deadline) {
			s.log.Info("submit guard still held, continuing unguarded", zap.String("email", email))
			return "", false, nil
		}
		t := time.NewTimer(guardPollEvery)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", false, nil
		case <-t.C:
		}
	}
}

func (s *Service) subscribe(ctx context.Context, email string) (domain.Subscriber, error) {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return domain.Subscriber{}, alreadySubscribed()
	} else if !errors.Is(err, subscriberrepo.ErrNotFound) {
		s.log.Error("subscriber lookup failed", zap.String("email", email), zap.Error(err))
		return domain.Subscriber{}, storeFailure(MsgSubscribeFailed, err)
	}

	rec := subscriberrepo.Subscriber{
		ID:        s.newSubscriberID(),
		Email:     email,
		Status:    domain.StatusActive,
		CreatedAt: s.clk.Now(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, subscriberrepo.ErrEmailTaken) {
			// Lost the race against a concurrent request for the same address.
			s.log.Info("subscriber insert hit unique constraint", zap.String("email", email))
			return domain.Subscriber{}, alreadySubscribed()
		}
		s.log.Error("subscriber insert failed", zap.String("email", email), zap.Error(err))
		return domain.Subscriber{}, storeFailure(MsgSubscribeFailed, err)
	}

	s.log.Info("subscriber created", zap.String("subscriber_id", string(rec.ID)), zap.String("email", email))
	return toDomain(rec), nil
}

// ListSubscribers returns every subscriber, newest first.
func (s *Service) ListSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("subscriber list failed", zap.Error(err))
		return nil, storeFailure(MsgServerError, err)
	}
	out := make([]domain.Subscriber, 0, len(recs))
	for _, r := range recs {
		out = append(out, toDomain(r))
	}
	return out, nil
}

// Ready reports whether the subscriber store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func toDomain(r subscriberrepo.Subscriber) domain.Subscriber {
	return domain.Subscriber{
		ID:        r.ID,
		Email:     r.Email,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}
