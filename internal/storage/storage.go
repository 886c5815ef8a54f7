// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"estate_bot/internal/model"
)

// ErrNotFound is returned when a requested record does not exist or does
// not belong to the requesting user.
var ErrNotFound = errors.New("not found")

// ErrAlreadyNotified is returned by RecordNotified when the (user, listing)
// pair already exists in the delivery ledger.
var ErrAlreadyNotified = errors.New("already notified")

// ListingFilter selects listings. Nil bounds are unbounded; bounds are
// inclusive. CreatedWithin > 0 restricts to listings ingested inside the
// trailing window. RequirePrice drops listings without a numeric price.
type ListingFilter struct {
	Category      string
	District      *string
	PriceMin      *int64
	PriceMax      *int64
	RoomsMin      *float64
	RoomsMax      *float64
	AreaMin       *float64
	AreaMax       *float64
	CreatedWithin time.Duration
	RequirePrice  bool
}

// FailureFilter selects failure records. Nil fields are not applied.
type FailureFilter struct {
	Kind     *model.FailureKind
	Resolved *bool
	Limit    int
}

// FailureStats summarizes the failure sink.
type FailureStats struct {
	Total      int
	ByKind     map[model.FailureKind]int
	Unresolved int
	Last24h    int
}

// Storage is the interface for all persistence operations.
type Storage interface {
	// UpsertListing creates the listing if its id is absent and reports
	// whether a row was created. An existing row is left untouched.
	UpsertListing(ctx context.Context, l *model.Listing) (bool, error)
	QueryListings(ctx context.Context, f ListingFilter) ([]model.Listing, error)
	FindLatestListing(ctx context.Context, f ListingFilter) (*model.Listing, error)
	CountListings(ctx context.Context, f ListingFilter) (int, error)

	EnsureUser(ctx context.Context, chatID string) error
	GetUser(ctx context.Context, chatID string) (*model.User, error)

	CreateSubscription(ctx context.Context, s *model.Subscription) error
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	ListUserSubscriptions(ctx context.Context, chatID string) ([]model.Subscription, error)
	GetUserSubscription(ctx context.Context, chatID string, id int64) (*model.Subscription, error)
	DeleteSubscription(ctx context.Context, chatID string, id int64) error

	AlreadyNotified(ctx context.Context, chatID, listingID string) (bool, error)
	RecordNotified(ctx context.Context, chatID, listingID string) error

	AppendFailure(ctx context.Context, r *model.FailureRecord) error
	ListFailures(ctx context.Context, f FailureFilter) ([]model.FailureRecord, error)
	ResolveFailure(ctx context.Context, id int64) error
	FailureStats(ctx context.Context) (*FailureStats, error)

	Close() error
}
