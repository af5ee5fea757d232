package domain

import "time"

// SubscriberStatus is the lifecycle marker stored with each subscriber.
// Only StatusActive is ever written; StatusUnsubscribed exists in the schema for later use.
type SubscriberStatus string

const (
	StatusActive       SubscriberStatus = "active"
	StatusUnsubscribed SubscriberStatus = "unsubscribed"
)

func (s SubscriberStatus) Valid() bool {
	switch s {
	case StatusActive, StatusUnsubscribed:
		return true
	default:
		return false
	}
}

// Subscriber is one email address that opted into the newsletter.
type Subscriber struct {
	ID        SubscriberID
	Email     string
	Status    SubscriberStatus
	CreatedAt time.Time
}
