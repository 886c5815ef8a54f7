package poller

import (
	"strings"
	"testing"

	"estate_bot/internal/model"
)

func TestFormatListingFull(t *testing.T) {
	l := model.Listing{
		ID:         "fbdxm",
		Title:      "Pārdod 2-istabu dzīvokli Teikā",
		Price:      "95 000 €",
		PriceValue: ptrInt(95000),
		PricePerM2: ptrFloat(1583),
		District:   ptrStr("Teika"),
		Rooms:      ptrFloat(2),
		Area:       ptrFloat(60),
		Floor:      ptrStr("3/5"),
		Category:   model.CategoryFlats,
		Link:       "https://www.ss.lv/msg/fbdxm.html",
	}

	got := FormatListing(l)

	want := []string{
		"🏠 New Listing Alert! 🏠",
		"Title: Pārdod 2-istabu dzīvokli Teikā",
		"Price: 95 000 €",
		"Price per m²: 1583 €/m²",
		"Rooms: 2",
		"Area: 60 m²",
		"Floor: 3/5",
		"District: Teika",
		"🔗 https://www.ss.lv/msg/fbdxm.html",
	}
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("message missing %q:\n%s", w, got)
		}
	}
	if strings.Contains(got, "Commercial") {
		t.Errorf("residential listing flagged commercial:\n%s", got)
	}
}

func TestFormatListingCommercial(t *testing.T) {
	l := model.Listing{
		ID:    "xyz",
		Title: "Citi - biroja telpas centrā",
		Price: "1 200 €/mēn.",
		Link:  "https://www.ss.lv/msg/xyz.html",
	}

	got := FormatListing(l)

	if !strings.Contains(got, "🏢") {
		t.Errorf("expected commercial icon:\n%s", got)
	}
	if !strings.Contains(got, "Property Type: Commercial") {
		t.Errorf("expected commercial marker line:\n%s", got)
	}
}

func TestFormatListingNoPrice(t *testing.T) {
	l := model.Listing{
		ID:    "abc",
		Title: "Dzīvoklis bez cenas",
		Link:  "https://www.ss.lv/msg/abc.html",
	}

	got := FormatListing(l)

	if !strings.Contains(got, "Price: Contact for price") {
		t.Errorf("expected price fallback:\n%s", got)
	}
}

func TestFormatListingFractionalValues(t *testing.T) {
	l := model.Listing{
		Title: "Dzīvoklis",
		Price: "173 250 €",
		Rooms: ptrFloat(2.5),
		Area:  ptrFloat(82.5),
		Link:  "https://example.test/x.html",
	}

	got := FormatListing(l)

	if !strings.Contains(got, "Rooms: 2.5") {
		t.Errorf("expected fractional rooms:\n%s", got)
	}
	if !strings.Contains(got, "Area: 82.5 m²") {
		t.Errorf("expected fractional area:\n%s", got)
	}
}
