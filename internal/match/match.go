// Package match implements the listing-to-subscription matching predicate.
package match

import (
	"strings"

	"estate_bot/internal/model"
)

// Matches reports whether a listing satisfies a subscription's criteria.
//
// Matching is permissive: an unset subscription field never excludes, and a
// listing missing a bounded field passes that bound. District labels are
// compared case-insensitively; subscriptions store the canonical display
// label, so no further normalization is applied.
func Matches(l model.Listing, s model.Subscription) bool {
	if l.Category != s.Category {
		return false
	}

	if s.District != nil {
		if l.District == nil || !strings.EqualFold(*l.District, *s.District) {
			return false
		}
	}

	if s.PriceMin != nil && l.PriceValue != nil && *l.PriceValue < *s.PriceMin {
		return false
	}
	if s.PriceMax != nil && l.PriceValue != nil && *l.PriceValue > *s.PriceMax {
		return false
	}

	if s.RoomsMin != nil && l.Rooms != nil && *l.Rooms < *s.RoomsMin {
		return false
	}
	if s.RoomsMax != nil && l.Rooms != nil && *l.Rooms > *s.RoomsMax {
		return false
	}

	if s.AreaMin != nil && l.Area != nil && *l.Area < *s.AreaMin {
		return false
	}
	if s.AreaMax != nil && l.Area != nil && *l.Area > *s.AreaMax {
		return false
	}

	return true
}
