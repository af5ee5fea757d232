package domain

// SubjectID is the authenticated subject extracted from JWT claims (typically "sub").
// We model it as an opaque identifier: its format is controlled by the IdP.
type SubjectID string

// SubscriberID is an internal identifier for a subscriber record.
type SubscriberID string
