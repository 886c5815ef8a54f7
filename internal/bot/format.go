package bot

import (
	"fmt"
	"strconv"
	"strings"

	"estate_bot/internal/model"
	"estate_bot/internal/storage"
)

// FormatSubscription renders one filter's criteria.
func FormatSubscription(s model.Subscription) string {
	district := "any"
	if s.District != nil {
		district = *s.District
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n", s.Category)
	fmt.Fprintf(&b, "District: %s\n", district)
	fmt.Fprintf(&b, "Price: %s € - %s\n",
		formatIntBound(s.PriceMin, "0"), priceMaxLabel(s.PriceMax))
	fmt.Fprintf(&b, "Rooms: %s - %s\n",
		formatFloatBound(s.RoomsMin, "0"), formatFloatBound(s.RoomsMax, "no limit"))
	return b.String()
}

// FormatSubscriptionList renders a user's filters for /myfilters.
func FormatSubscriptionList(subs []model.Subscription) string {
	var b strings.Builder
	b.WriteString("📋 Your active filters:\n\n")
	for i, s := range subs {
		district := "any"
		if s.District != nil {
			district = *s.District
		}
		fmt.Fprintf(&b, "%d) ID: %d\n", i+1, s.ID)
		fmt.Fprintf(&b, "   Category: %s\n", s.Category)
		fmt.Fprintf(&b, "   District: %s\n", district)
		fmt.Fprintf(&b, "   Price: %s € - %s\n",
			formatIntBound(s.PriceMin, "0"), priceMaxLabel(s.PriceMax))
		fmt.Fprintf(&b, "   Rooms: %s - %s\n\n",
			formatFloatBound(s.RoomsMin, "0"), formatFloatBound(s.RoomsMax, "no limit"))
	}
	b.WriteString("To remove a filter, use /removefilter <id>")
	return b.String()
}

// FormatFailureReport renders the admin failure summary: stats header plus
// the given unresolved records grouped by kind.
func FormatFailureReport(stats *storage.FailureStats, records []model.FailureRecord) string {
	var b strings.Builder
	b.WriteString("📊 Failed Listings Report\n\n")
	fmt.Fprintf(&b, "Total failed listings: %d\n", stats.Total)
	fmt.Fprintf(&b, "Unresolved: %d\n", stats.Unresolved)
	fmt.Fprintf(&b, "Last 24 hours: %d\n\n", stats.Last24h)
	fmt.Fprintf(&b, "Showing %d most recent unresolved listings:\n\n", len(records))

	order := []model.FailureKind{model.FailureParsing, model.FailureInvalidData, model.FailureNotification}
	grouped := make(map[model.FailureKind][]model.FailureRecord)
	for _, r := range records {
		grouped[r.Kind] = append(grouped[r.Kind], r)
	}

	for _, kind := range order {
		rs := grouped[kind]
		if len(rs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "--- %s (%d) ---\n\n", kind, len(rs))
		for i, r := range rs {
			title := r.Title
			if title == "" {
				title = "Unknown"
			}
			fmt.Fprintf(&b, "%d. %q\n", i+1, title)
			fmt.Fprintf(&b, "   Error: %s\n", r.Error)
			fmt.Fprintf(&b, "   Time: %s\n", r.CreatedAt.Format("2006-01-02 15:04 UTC"))
			if r.Link != "" {
				fmt.Fprintf(&b, "   Link: %s\n", r.Link)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func priceMaxLabel(p *int64) string {
	if p == nil {
		return "no limit"
	}
	return strconv.FormatInt(*p, 10) + " €"
}

func formatIntBound(p *int64, absent string) string {
	if p == nil {
		return absent
	}
	return strconv.FormatInt(*p, 10)
}

func formatFloatBound(p *float64, absent string) string {
	if p == nil {
		return absent
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
