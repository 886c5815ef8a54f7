package bot

import (
	"strings"
	"testing"
	"time"

	"estate_bot/internal/model"
	"estate_bot/internal/storage"
)

func ptrInt(v int64) *int64       { return &v }
func ptrFloat(v float64) *float64 { return &v }
func ptrStr(v string) *string     { return &v }

func TestFormatSubscription(t *testing.T) {
	full := model.Subscription{
		Category: model.CategoryFlats,
		District: ptrStr("Teika"),
		PriceMin: ptrInt(50000),
		PriceMax: ptrInt(150000),
		RoomsMin: ptrFloat(1),
		RoomsMax: ptrFloat(3),
	}
	got := FormatSubscription(full)
	for _, w := range []string{
		"Category: flats",
		"District: Teika",
		"Price: 50000 € - 150000 €",
		"Rooms: 1 - 3",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("missing %q:\n%s", w, got)
		}
	}

	empty := model.Subscription{Category: model.CategoryFlats}
	got = FormatSubscription(empty)
	for _, w := range []string{
		"District: any",
		"Price: 0 € - no limit",
		"Rooms: 0 - no limit",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("missing %q:\n%s", w, got)
		}
	}
}

func TestFormatSubscriptionList(t *testing.T) {
	subs := []model.Subscription{
		{ID: 3, Category: model.CategoryFlats, District: ptrStr("Teika")},
		{ID: 7, Category: model.CategoryFlats},
	}
	got := FormatSubscriptionList(subs)

	for _, w := range []string{
		"Your active filters",
		"1) ID: 3",
		"2) ID: 7",
		"District: Teika",
		"District: any",
		"/removefilter <id>",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("missing %q:\n%s", w, got)
		}
	}
}

func TestFormatFailureReport(t *testing.T) {
	when := time.Date(2026, 8, 31, 9, 15, 0, 0, time.UTC)
	stats := &storage.FailureStats{
		Total:      3,
		Unresolved: 2,
		Last24h:    1,
		ByKind: map[model.FailureKind]int{
			model.FailureParsing:      2,
			model.FailureNotification: 1,
		},
	}
	records := []model.FailureRecord{
		{Kind: model.FailureNotification, Title: "Dzīvoklis Teikā",
			Error: "failed to send notification: blocked", CreatedAt: when},
		{Kind: model.FailureParsing, Link: "https://www.ss.lv/msg/bad.html",
			Error: "feed entry parsing error: boom", CreatedAt: when},
	}

	got := FormatFailureReport(stats, records)

	for _, w := range []string{
		"Total failed listings: 3",
		"Unresolved: 2",
		"Last 24 hours: 1",
		"Showing 2 most recent unresolved listings",
		"--- PARSING_ERROR (1) ---",
		"--- NOTIFICATION_ERROR (1) ---",
		`"Unknown"`,
		`"Dzīvoklis Teikā"`,
		"Link: https://www.ss.lv/msg/bad.html",
		"Time: 2026-08-31 09:15 UTC",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("missing %q:\n%s", w, got)
		}
	}

	// Parsing failures are listed before notification failures.
	if strings.Index(got, "PARSING_ERROR") > strings.Index(got, "NOTIFICATION_ERROR") {
		t.Error("expected parsing failures first")
	}
}
