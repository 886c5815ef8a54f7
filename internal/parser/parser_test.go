package parser

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"estate_bot/internal/model"
)

func ptrInt(v int64) *int64       { return &v }
func ptrFloat(v float64) *float64 { return &v }
func ptrStr(v string) *string     { return &v }

func TestParseFullEntry(t *testing.T) {
	pub := time.Date(2026, 8, 31, 9, 15, 0, 0, time.UTC)
	item := Item{
		Link:  "https://www.ss.lv/msg/lv/real-estate/flats/riga/teika/fbdxm.html",
		Title: "Pārdod 2-istabu dzīvokli Teikā",
		Description: `Iela: <b>Brīvības 101</b><br/>Ist.: <b>2</b><br/>` +
			`m2: <b>60</b><br/>Stāvs: <b>3/5</b><br/>Pagasts: <b>Teika</b><br/>Cena: <b>95 000 €</b>`,
		PubDate: &pub,
	}

	got, failure := Parse(item)
	if failure != nil {
		t.Fatalf("unexpected failure: %+v", failure)
	}

	// The price-per-m2 pattern hits the first colon-bold field in the
	// document; here that is the street, which does not parse as a number.
	want := model.Listing{
		ID:         "fbdxm",
		Title:      item.Title,
		Price:      "95 000 €",
		PriceValue: ptrInt(95000),
		District:   ptrStr("Teika"),
		Rooms:      ptrFloat(2),
		Area:       ptrFloat(60),
		Floor:      ptrStr("3/5"),
		Category:   model.CategoryFlats,
		Link:       item.Link,
		PubDate:    pub,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMissingFields(t *testing.T) {
	tests := []struct {
		name string
		item Item
	}{
		{name: "empty entry", item: Item{}},
		{name: "link only", item: Item{Link: "https://www.ss.lv/msg/abc.html"}},
		{name: "plain text description", item: Item{Description: "no structured fields here"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, failure := Parse(tt.item)
			if failure != nil {
				t.Fatalf("unexpected failure: %+v", failure)
			}
			if got.PriceValue != nil || got.PricePerM2 != nil || got.District != nil ||
				got.Rooms != nil || got.Area != nil || got.Floor != nil {
				t.Errorf("expected unset optional fields, got %+v", got)
			}
			if got.Category != model.CategoryFlats {
				t.Errorf("category = %q, want %q", got.Category, model.CategoryFlats)
			}
			if got.PubDate.IsZero() {
				t.Error("expected publish date fallback, got zero time")
			}
		})
	}
}

func TestParseRoomsOther(t *testing.T) {
	got, failure := Parse(Item{
		Link:        "https://www.ss.lv/msg/lv/real-estate/flats/riga/purvciems/khlnt.html",
		Description: `Ist.: <b>Citi</b><br/>Cena: <b>maiņai</b>`,
	})
	if failure != nil {
		t.Fatalf("unexpected failure: %+v", failure)
	}
	if got.Rooms != nil {
		t.Errorf("rooms = %v, want absent for sentinel value", *got.Rooms)
	}
	if got.Price != "maiņai" {
		t.Errorf("raw price = %q, want %q", got.Price, "maiņai")
	}
	if got.PriceValue != nil {
		t.Errorf("price value = %v, want absent for non-numeric price", *got.PriceValue)
	}
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{
			name: "trailing html segment",
			link: "https://www.ss.lv/msg/lv/real-estate/flats/riga/teika/fbdxm.html",
			want: "fbdxm",
		},
		{
			name: "no html suffix falls back to full link",
			link: "https://www.ss.lv/msg/lv/real-estate/flats/riga/teika/",
			want: "https://www.ss.lv/msg/lv/real-estate/flats/riga/teika/",
		},
		{
			name: "empty link",
			link: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractID(tt.link); got != tt.want {
				t.Errorf("extractID(%q) = %q, want %q", tt.link, got, tt.want)
			}
			// Id derivation must be deterministic across re-fetches.
			if again := extractID(tt.link); again != tt.want {
				t.Errorf("extractID(%q) second call = %q, want %q", tt.link, again, tt.want)
			}
		})
	}
}

func TestParsePriceVariants(t *testing.T) {
	tests := []struct {
		name      string
		desc      string
		wantRaw   string
		wantValue *int64
	}{
		{
			name:      "space grouped",
			desc:      `Cena: <b>95 000 €</b>`,
			wantRaw:   "95 000 €",
			wantValue: ptrInt(95000),
		},
		{
			name:      "comma grouped",
			desc:      `Cena: <b>1,200 €/mēn.</b>`,
			wantRaw:   "1,200 €/mēn.",
			wantValue: ptrInt(1200),
		},
		{
			name:      "no price field",
			desc:      `Pagasts: <b>Teika</b>`,
			wantRaw:   "",
			wantValue: nil,
		},
		{
			name:      "non-numeric price",
			desc:      `Cena: <b>pērku</b>`,
			wantRaw:   "pērku",
			wantValue: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, failure := Parse(Item{Description: tt.desc})
			if failure != nil {
				t.Fatalf("unexpected failure: %+v", failure)
			}
			if got.Price != tt.wantRaw {
				t.Errorf("raw price = %q, want %q", got.Price, tt.wantRaw)
			}
			if diff := cmp.Diff(tt.wantValue, got.PriceValue); diff != "" {
				t.Errorf("price value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParsePricePerM2(t *testing.T) {
	got, failure := Parse(Item{Description: `€/m2: <b>1 583</b>`})
	if failure != nil {
		t.Fatalf("unexpected failure: %+v", failure)
	}
	if got.PricePerM2 == nil || *got.PricePerM2 != 1583 {
		t.Errorf("price per m2 = %v, want 1583", got.PricePerM2)
	}
	// The unscoped area pattern also hits this field, but its capture
	// keeps the digit grouping and fails to parse.
	if got.Area != nil {
		t.Errorf("area = %v, want absent", *got.Area)
	}
}

func TestParseDistrictNewline(t *testing.T) {
	got, failure := Parse(Item{
		Description: "Pagasts: <b>Teika\nIela: Brīvības</b>",
	})
	if failure != nil {
		t.Fatalf("unexpected failure: %+v", failure)
	}
	if got.District == nil || *got.District != "Teika" {
		t.Errorf("district = %v, want %q", got.District, "Teika")
	}
}

func TestIsSentinel(t *testing.T) {
	if !IsSentinel("error-1756630000000") {
		t.Error("expected sentinel id to be recognized")
	}
	if IsSentinel("fbdxm") {
		t.Error("regular id misclassified as sentinel")
	}
}

func TestSentinelIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := sentinelID()
		if !IsSentinel(id) {
			t.Fatalf("sentinelID() = %q, not recognized as sentinel", id)
		}
		if seen[id] {
			t.Fatalf("duplicate sentinel id %q", id)
		}
		seen[id] = true
	}
}
