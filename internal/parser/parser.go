// Package parser turns raw feed entries into typed listing records.
//
// The upstream markup is inconsistent and only semi-structured, so every
// field is extracted independently: a malformed or missing field stays
// unset instead of failing the whole entry.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"estate_bot/internal/model"
)

// Item is one raw feed entry as delivered by the fetcher. Any field may be
// empty; PubDate is nil when the feed carried no parseable date.
type Item struct {
	Link        string
	Title       string
	Description string
	PubDate     *time.Time
}

// roomsOther is the upstream sentinel for "other" room counts; it means
// the field is absent, not zero.
const roomsOther = "Citi"

var (
	idRe = regexp.MustCompile(`/(\w+)\.html$`)

	priceRe        = regexp.MustCompile(`Cena:\s*<b>([^<]+)</b>`)
	priceNumericRe = regexp.MustCompile(`(\d[\d\s,]*)`)
	priceStripRe   = regexp.MustCompile(`[\s,]+`)

	// Deliberately unscoped: matches the first colon-bold value in the
	// document, mirroring the upstream feed's layout where the price per
	// square metre is the first such field.
	pricePerM2Re      = regexp.MustCompile(`:\s*<b>([^<]+)</b>`)
	pricePerM2StripRe = regexp.MustCompile(`[\s,€]+`)

	districtRe = regexp.MustCompile(`Pagasts:\s*<b>([^<]+)</b>`)
	roomsRe    = regexp.MustCompile(`Ist\.:\s*<b>([^<]+)</b>`)
	areaRe     = regexp.MustCompile(`m2:\s*<b>([^<]+)</b>`)
	floorRe    = regexp.MustCompile(`Stāvs:\s*<b>([^<]+)</b>`)
)

// IsSentinel reports whether a listing id marks a failed parse. Sentinel
// listings must never be stored or matched.
func IsSentinel(id string) bool {
	return strings.HasPrefix(id, "error-")
}

var sentinelSeq atomic.Int64

// sentinelID returns a process-unique id for a failed parse, so failure
// records from the same millisecond stay distinguishable.
func sentinelID() string {
	return fmt.Sprintf("error-%d-%d", time.Now().UnixMilli(), sentinelSeq.Add(1))
}

// Parse converts one raw feed entry into a listing. It never panics past
// this boundary: an unexpected failure yields a sentinel listing plus a
// FailureRecord carrying the serialized entry, and the caller routes the
// record to the failure sink.
func Parse(item Item) (listing model.Listing, failure *model.FailureRecord) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		raw, _ := json.Marshal(item)
		failure = &model.FailureRecord{
			Kind:    model.FailureParsing,
			Title:   orUnknown(item.Title),
			Link:    orUnknown(item.Link),
			Error:   fmt.Sprintf("feed entry parsing error: %v", r),
			RawData: string(raw),
		}
		listing = model.Listing{
			ID:       sentinelID(),
			Title:    item.Title,
			Link:     item.Link,
			Category: model.CategoryFlats,
			PubDate:  time.Now().UTC(),
		}
	}()

	listing = model.Listing{
		ID:       extractID(item.Link),
		Title:    item.Title,
		Category: model.CategoryFlats,
		Link:     item.Link,
		PubDate:  time.Now().UTC(),
	}
	if item.PubDate != nil {
		listing.PubDate = item.PubDate.UTC()
	}

	desc := item.Description

	if m := priceRe.FindStringSubmatch(desc); m != nil {
		listing.Price = strings.TrimSpace(m[1])
		if nm := priceNumericRe.FindStringSubmatch(listing.Price); nm != nil {
			raw := priceStripRe.ReplaceAllString(nm[1], "")
			if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
				listing.PriceValue = &v
			}
		}
	}

	if m := pricePerM2Re.FindStringSubmatch(desc); m != nil {
		raw := pricePerM2StripRe.ReplaceAllString(m[1], "")
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			listing.PricePerM2 = &v
		}
	}

	if m := districtRe.FindStringSubmatch(desc); m != nil {
		d := strings.TrimSpace(m[1])
		if i := strings.IndexByte(d, '\n'); i >= 0 {
			d = strings.TrimSpace(d[:i])
		}
		listing.District = &d
	}

	if m := roomsRe.FindStringSubmatch(desc); m != nil {
		r := strings.TrimSpace(m[1])
		if r != roomsOther {
			if v, err := strconv.ParseFloat(r, 64); err == nil {
				listing.Rooms = &v
			}
		}
	}

	if m := areaRe.FindStringSubmatch(desc); m != nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64); err == nil {
			listing.Area = &v
		}
	}

	if m := floorRe.FindStringSubmatch(desc); m != nil {
		f := strings.TrimSpace(m[1])
		listing.Floor = &f
	}

	return listing, nil
}

// extractID derives a stable listing id from the source link: the trailing
// path segment before ".html". Links without that shape fall back to the
// full link string so re-fetches still dedupe.
func extractID(link string) string {
	if m := idRe.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return link
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
