package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"estate_bot/internal/poller"
	"estate_bot/internal/storage"
)

func (b *Bot) handleStart(chatID string) {
	b.reply(chatID, `🏠 Welcome to the Real Estate Notification Bot! 🏠

I can help you find apartments in Riga based on your preferences.

Use these commands:
/addfilter - Create a filter with district, price and room ranges
/myfilters - See your active filters
/removefilter <id> - Delete a filter
/districts - Browse listings by district with filters
/latest <filter_id> - Get the newest listing matching your filter
/failedlistings - View listings that failed processing (admin only)
/help - Show this help message`)
}

func (b *Bot) handleHelp(chatID string) {
	b.reply(chatID, `🏠 Real Estate Notification Bot Help 🏠

Commands:
/addfilter - Create a filter for flats with district, price range, and room range
/myfilters - Show all your active filters
/removefilter <id> - Delete a filter by ID
/latest <filter_id> - Get the newest listing matching your filter
/districts - Browse listings by district with interactive filters
/failedlistings - View listings that failed processing (admin only)
/help - Show this help message

Each filter you create can include:
• District - a specific area in Riga, or any district
• Price range - minimum and maximum price
• Rooms range - minimum and maximum number of rooms

I will notify you about new listings that match your filters as they appear.`)
}

func (b *Bot) handleMyFilters(ctx context.Context, chatID string) {
	subs, err := b.store.ListUserSubscriptions(ctx, chatID)
	if err != nil {
		b.log.Error("list subscriptions", "chat_id", chatID, "error", err)
		b.reply(chatID, "❌ Could not load your filters. Please try again.")
		return
	}
	if len(subs) == 0 {
		b.reply(chatID, "You have no active filters. Use /addfilter to create one.")
		return
	}
	b.reply(chatID, FormatSubscriptionList(subs))
}

func (b *Bot) handleRemoveFilter(ctx context.Context, chatID, args string) {
	id, err := parseIDArg(args)
	if err != nil {
		b.reply(chatID, "Please specify the filter ID to remove, e.g.: /removefilter 3\nUse /myfilters to see your filter IDs.")
		return
	}

	if err := b.store.DeleteSubscription(ctx, chatID, id); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			b.log.Error("delete subscription", "chat_id", chatID, "id", id, "error", err)
		}
		b.reply(chatID, "❌ Could not remove filter. Check the ID or try again.")
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Removed filter with ID %d.", id))
}

func (b *Bot) handleLatest(ctx context.Context, chatID, args string) {
	id, err := parseIDArg(args)
	if err != nil {
		b.reply(chatID, "Please specify the filter ID to use, e.g.: /latest 3\nUse /myfilters to see your filter IDs.")
		return
	}

	sub, err := b.store.GetUserSubscription(ctx, chatID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			b.reply(chatID, fmt.Sprintf("❌ Filter with ID %d not found or doesn't belong to you.", id))
			return
		}
		b.log.Error("get subscription", "chat_id", chatID, "id", id, "error", err)
		b.reply(chatID, "❌ Something went wrong. Please try again later.")
		return
	}

	b.reply(chatID, "🔍 Searching for the latest listing matching your filter...")

	listing, err := b.poller.LatestListing(ctx, *sub)
	if err != nil {
		b.log.Error("latest listing", "chat_id", chatID, "error", err)
		b.reply(chatID, "❌ Something went wrong while fetching the latest listing. Please try again later.")
		return
	}
	if listing == nil {
		b.reply(chatID, "😔 No listings found matching your filter criteria.")
		return
	}
	b.reply(chatID, poller.FormatListing(*listing))
}

func (b *Bot) handleFailedListings(ctx context.Context, chatID string) {
	if _, err := b.store.GetUser(ctx, chatID); err != nil {
		b.reply(chatID, "You need to start the bot first with the /start command.")
		return
	}
	if !b.cfg.IsAdmin(chatID) {
		b.reply(chatID, "❌ This command is available to administrators only.")
		return
	}

	resolved := false
	records, err := b.store.ListFailures(ctx, storage.FailureFilter{Resolved: &resolved, Limit: 20})
	if err != nil {
		b.log.Error("list failures", "error", err)
		b.reply(chatID, "An error occurred while fetching failed listings.")
		return
	}
	if len(records) == 0 {
		b.reply(chatID, "No failed listings found.")
		return
	}

	stats, err := b.store.FailureStats(ctx)
	if err != nil {
		b.log.Error("failure stats", "error", err)
		b.reply(chatID, "An error occurred while fetching failed listings.")
		return
	}

	b.reply(chatID, FormatFailureReport(stats, records))
}

func parseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("id is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
