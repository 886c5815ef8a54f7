package poller

import (
	"fmt"
	"strconv"
	"strings"

	"estate_bot/internal/model"
)

// commercialMarker in a title flags non-residential listings; the feed uses
// it for its catch-all "other" category.
const commercialMarker = "Citi"

// FormatListing renders a listing as a notification message. It is a pure
// projection used by both the scheduled pipeline and on-demand lookups.
func FormatListing(l model.Listing) string {
	price := l.Price
	if price == "" {
		price = "Contact for price"
	}

	isCommercial := strings.Contains(l.Title, commercialMarker) || l.Category == "commercial"
	icon := "🏠"
	if isCommercial {
		icon = "🏢"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s New Listing Alert! %s\n\n", icon, icon)
	fmt.Fprintf(&b, "Title: %s\n", l.Title)
	fmt.Fprintf(&b, "Price: %s", price)
	if l.PricePerM2 != nil {
		fmt.Fprintf(&b, "\nPrice per m²: %s €/m²", formatFloat(*l.PricePerM2))
	}
	if l.Rooms != nil {
		fmt.Fprintf(&b, "\nRooms: %s", formatFloat(*l.Rooms))
	}
	if l.Area != nil {
		fmt.Fprintf(&b, "\nArea: %s m²", formatFloat(*l.Area))
	}
	if l.Floor != nil {
		fmt.Fprintf(&b, "\nFloor: %s", *l.Floor)
	}
	if l.District != nil {
		fmt.Fprintf(&b, "\nDistrict: %s", *l.District)
	}
	if isCommercial {
		b.WriteString("\nProperty Type: Commercial")
	}
	fmt.Fprintf(&b, "\n\n🔗 %s", l.Link)

	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
