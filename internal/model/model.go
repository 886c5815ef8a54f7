// Package model defines the domain types used across the application.
package model

import "time"

// CategoryFlats is the single listing category ingested from the feed.
const CategoryFlats = "flats"

// Listing is one real-estate advertisement ingested from the feed.
// Fields the upstream markup may omit are pointers and stay nil when the
// source entry does not carry them.
type Listing struct {
	ID         string
	Title      string
	Price      string // raw price text as published, e.g. "95 000 €"
	PriceValue *int64
	PricePerM2 *float64
	District   *string
	Rooms      *float64
	Area       *float64
	Floor      *string
	Category   string
	Link       string
	PubDate    time.Time
	CreatedAt  time.Time
}

// Subscription is a user's saved matching criteria. All range bounds are
// inclusive; a nil bound means unbounded on that side.
type Subscription struct {
	ID         int64
	UserChatID string
	Category   string
	District   *string
	PriceMin   *int64
	PriceMax   *int64
	RoomsMin   *float64
	RoomsMax   *float64
	AreaMin    *float64
	AreaMax    *float64
	CreatedAt  time.Time
}

// FailureKind classifies a pipeline failure.
type FailureKind string

// Supported failure kinds.
const (
	FailureParsing      FailureKind = "PARSING_ERROR"
	FailureInvalidData  FailureKind = "INVALID_DATA"
	FailureNotification FailureKind = "NOTIFICATION_ERROR"
)

// FailureRecord is an audit entry for a pipeline error. Records are created
// by the failing stage and only ever mutated by marking them resolved.
type FailureRecord struct {
	ID         int64
	Kind       FailureKind
	ListingID  string
	Title      string
	Link       string
	Error      string
	RawData    string
	Context    map[string]any
	Resolved   bool
	ResolvedAt *time.Time
	CreatedAt  time.Time
}

// User is a chat known to the bot, created lazily on first interaction.
type User struct {
	ChatID    string
	CreatedAt time.Time
}
