// Package poller drives the poll-match-notify pipeline: periodic feed
// acquisition, idempotent ingestion, subscription matching, and
// at-most-once delivery through the sender.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"estate_bot/internal/districts"
	"estate_bot/internal/fetcher"
	"estate_bot/internal/match"
	"estate_bot/internal/model"
	"estate_bot/internal/parser"
	"estate_bot/internal/storage"
)

const (
	defaultInterval = 5 * time.Minute

	// recentWindow is wider than the poll interval so scheduler jitter
	// cannot drop listings between cycles; the delivery ledger dedupes
	// the resulting overlap.
	recentWindow = 10 * time.Minute
)

// Sender delivers a text message to a chat. Implementations report failure
// with an error; the poller records it and moves on without retrying.
type Sender interface {
	SendMessage(chatID, text string) error
}

// Poller runs the scheduled pipeline and serves on-demand lookups.
type Poller struct {
	store    storage.Storage
	fetcher  *fetcher.Fetcher
	sender   Sender
	log      *slog.Logger
	interval time.Duration
	window   time.Duration

	// mu serializes cycles so a manual trigger cannot race the scheduled
	// one on delivery ledger checks.
	mu sync.Mutex
}

// New creates a Poller with the default 5-minute interval.
func New(store storage.Storage, f *fetcher.Fetcher, sender Sender, log *slog.Logger) *Poller {
	return &Poller{
		store:    store,
		fetcher:  f,
		sender:   sender,
		log:      log,
		interval: defaultInterval,
		window:   recentWindow,
	}
}

// SetInterval overrides the default poll interval.
func (p *Poller) SetInterval(d time.Duration) {
	p.interval = d
}

// Run starts the poll loop, blocking until ctx is cancelled. Cycles never
// overlap: each tick is consumed only after the previous cycle finished.
func (p *Poller) Run(ctx context.Context) {
	p.RunCycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunCycle(ctx)
		}
	}
}

// RunCycle executes one full pipeline cycle. Per-item failures are recorded
// in the failure sink and never abort the cycle.
func (p *Poller) RunCycle(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.Info("polling feed")

	items, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.log.Error("fetch feed", "error", err)
		return
	}
	if len(items) == 0 {
		p.log.Warn("no items in feed")
		return
	}
	p.log.Info("fetched feed items", "count", len(items))

	stored := p.ingest(ctx, items)
	p.log.Info("stored listings", "count", stored)

	recent, err := p.store.QueryListings(ctx, storage.ListingFilter{CreatedWithin: p.window})
	if err != nil {
		p.log.Error("query recent listings", "error", err)
		return
	}
	p.log.Info("processing recent listings", "count", len(recent))

	p.matchAndNotify(ctx, recent)
}

// ingest parses raw entries and upserts the valid results. Parse failures
// go to the failure sink; sentinel results are skipped, not stored.
func (p *Poller) ingest(ctx context.Context, items []parser.Item) int {
	stored := 0
	for _, item := range items {
		listing, failure := parser.Parse(item)
		if failure != nil {
			if err := p.store.AppendFailure(ctx, failure); err != nil {
				p.log.Error("append parse failure", "error", err)
			}
		}
		if parser.IsSentinel(listing.ID) {
			continue
		}

		created, err := p.store.UpsertListing(ctx, &listing)
		if err != nil {
			p.log.Error("store listing", "listing_id", listing.ID, "error", err)
			rec := &model.FailureRecord{
				Kind:      model.FailureInvalidData,
				ListingID: listing.ID,
				Title:     listing.Title,
				Link:      listing.Link,
				Error:     fmt.Sprintf("listing storage error: %v", err),
				Context:   map[string]any{"parsed": listing},
			}
			if err := p.store.AppendFailure(ctx, rec); err != nil {
				p.log.Error("append storage failure", "error", err)
			}
			continue
		}
		if created {
			stored++
		}
	}
	return stored
}

// matchAndNotify runs every recent listing against every subscription and
// delivers to users not yet in the ledger.
func (p *Poller) matchAndNotify(ctx context.Context, listings []model.Listing) {
	for _, listing := range listings {
		if ctx.Err() != nil {
			return
		}

		if listing.PriceValue == nil || *listing.PriceValue <= 0 {
			p.log.Debug("skipping listing with unusable price", "listing_id", listing.ID)
			rec := &model.FailureRecord{
				Kind:      model.FailureInvalidData,
				ListingID: listing.ID,
				Title:     listing.Title,
				Link:      listing.Link,
				Error:     fmt.Sprintf("invalid price value: %s", describePrice(listing.PriceValue)),
				Context:   map[string]any{"price": listing.Price},
			}
			if err := p.store.AppendFailure(ctx, rec); err != nil {
				p.log.Error("append price failure", "error", err)
			}
			continue
		}

		subs, err := p.store.ListSubscriptions(ctx)
		if err != nil {
			p.log.Error("list subscriptions", "error", err)
			continue
		}

		for _, sub := range subs {
			if !match.Matches(listing, sub) {
				continue
			}

			sent, err := p.store.AlreadyNotified(ctx, sub.UserChatID, listing.ID)
			if err != nil {
				p.log.Error("check delivery ledger", "listing_id", listing.ID, "error", err)
				continue
			}
			if sent {
				continue
			}

			if err := p.sender.SendMessage(sub.UserChatID, FormatListing(listing)); err != nil {
				p.log.Error("send listing",
					"listing_id", listing.ID, "chat_id", sub.UserChatID, "error", err)
				rec := &model.FailureRecord{
					Kind:      model.FailureNotification,
					ListingID: listing.ID,
					Title:     listing.Title,
					Link:      listing.Link,
					Error:     fmt.Sprintf("failed to send notification: %v", err),
					Context: map[string]any{
						"user_chat_id":    sub.UserChatID,
						"subscription_id": sub.ID,
					},
				}
				if err := p.store.AppendFailure(ctx, rec); err != nil {
					p.log.Error("append notification failure", "error", err)
				}
				continue
			}

			if err := p.store.RecordNotified(ctx, sub.UserChatID, listing.ID); err != nil {
				if !errors.Is(err, storage.ErrAlreadyNotified) {
					p.log.Error("record delivery", "listing_id", listing.ID, "error", err)
				}
				continue
			}
			p.log.Info("sent listing", "listing_id", listing.ID, "chat_id", sub.UserChatID)
		}
	}
}

// LatestListing fetches fresh data for the subscription's criteria, ingests
// it through the regular pipeline, and returns the newest stored match.
// Returns nil when nothing matches.
func (p *Poller) LatestListing(ctx context.Context, sub model.Subscription) (*model.Listing, error) {
	var items []parser.Item
	var err error

	if sub.District != nil {
		if value := districts.ValueFor(*sub.District); value != "" {
			items, err = p.fetcher.FetchDistrict(ctx, value, fetcher.Bounds{
				PriceMin: sub.PriceMin,
				PriceMax: sub.PriceMax,
				RoomsMin: sub.RoomsMin,
				RoomsMax: sub.RoomsMax,
			})
		} else {
			items, err = p.fetcher.Fetch(ctx)
		}
	} else {
		items, err = p.fetcher.Fetch(ctx)
	}
	if err != nil {
		p.log.Error("fetch for latest lookup", "error", err)
	}
	if len(items) > 0 {
		stored := p.ingest(ctx, items)
		p.log.Info("ingested listings for lookup", "count", stored)
	}

	return p.store.FindLatestListing(ctx, storage.ListingFilter{
		Category:     sub.Category,
		District:     sub.District,
		PriceMin:     sub.PriceMin,
		PriceMax:     sub.PriceMax,
		RoomsMin:     sub.RoomsMin,
		RoomsMax:     sub.RoomsMax,
		AreaMin:      sub.AreaMin,
		AreaMax:      sub.AreaMax,
		RequirePrice: true,
	})
}

func describePrice(v *int64) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *v)
}
