package domain

import (
	"context"
	"time"
)

// OrderRepository defines the persistence contract for orders.
type OrderRepository interface {
	// Create inserts the order, assigning its ID and per-day Number.
	Create(ctx context.Context, order Order) (Order, error)
	GetByID(ctx context.Context, id int64) (Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	// Update writes the order if its stored version still equals
	// order.Version, and bumps the version. Returns ErrConcurrentUpdate
	// when another writer got there first.
	Update(ctx context.Context, order Order) (Order, error)
}

// ListFilter holds optional criteria for listing orders.
type ListFilter struct {
	Status *Status
	// CreatorID restricts to orders placed by that profile.
	CreatorID int64
	// CreatorCompany restricts to orders placed by profiles of that company.
	CreatorCompany string
	// PlatformCode restricts to orders produced at that platform.
	PlatformCode string
	// OrCreatorCompany widens the PlatformCode restriction with orders
	// placed by profiles of that company.
	OrCreatorCompany string
	Limit        int
	Offset       int
}

// ProfileRepository resolves actors from external user identities.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID int64) (Profile, error)
	GetByID(ctx context.Context, id int64) (Profile, error)
}

// PlatformDirectory resolves production platforms.
type PlatformDirectory interface {
	GetByCode(ctx context.Context, code string) (Platform, error)
	// ForCompany returns the platform operated by company, or
	// ErrPlatformNotFound.
	ForCompany(ctx context.Context, company string) (Platform, error)
}

// TransitionValidator checks a resolved rule against the order and
// returns the destination status. It returns a *TransitionError when the
// rule does not leave the order's status and a *PreconditionError when the
// rule's precondition is unmet.
type TransitionValidator interface {
	Apply(ctx context.Context, order Order, rule Rule) (Status, error)
}

// StatusChanged is emitted whenever an order's status actually changes.
type StatusChanged struct {
	OrderID     int64
	OrderNumber string
	From        Status
	To          Status
	ActorID     int64
	ActorRole   Role
	OccurredAt  time.Time
}

// Notifier receives status changes. Delivery is best effort; errors are
// logged by the caller and never fail a transition.
type Notifier interface {
	OnStatusChanged(ctx context.Context, event StatusChanged) error
}

// Message is a chat record attached to an order.
type Message struct {
	ID        string
	OrderID   int64
	ProfileID int64
	Text      string
	CreatedAt time.Time
}

// MessageStore appends and reads order chat records.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg Message) error
	ListMessages(ctx context.Context, orderID int64) ([]Message, error)
}
