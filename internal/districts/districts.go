// Package districts holds the static Riga district lookup table.
// Values are the URL path segments the feed uses for district-scoped
// queries; labels are the display names the feed embeds in listings.
package districts

import "strings"

// District maps a feed URL value to its display label.
type District struct {
	Value string
	Label string
}

// All is the full district table, in display order. The "all" entry means
// no district restriction and is excluded from browsing keyboards.
var All = []District{
	{"all", "Visi"},
	{"centre", "Centrs"},
	{"agenskalns", "Āgenskalns"},
	{"aplokciems", "Aplokciems"},
	{"bergi", "Berģi"},
	{"bierini", "Bieriņi"},
	{"bolderaya", "Bolderāja"},
	{"breksi", "Brekši"},
	{"bukulti", "Bukulti"},
	{"chiekurkalns", "Čiekurkalns"},
	{"darzciems", "Dārzciems"},
	{"darzini", "Dārziņi"},
	{"daugavgriva", "Daugavgrīva"},
	{"dreilini", "Dreiliņi"},
	{"dzeguzhkalns", "Dzegužkalns (Dzirciems)"},
	{"grizinkalns", "Grīziņkalns"},
	{"ilguciems", "Iļģuciems"},
	{"imanta", "Imanta"},
	{"janjavarti", "Jāņavārti"},
	{"jaunciems", "Jaunciems"},
	{"jaunmilgravis", "Jaunmīlgrāvis"},
	{"yugla", "Jugla"},
	{"katlakalns", "Katlakalns"},
	{"kengarags", "Ķengarags"},
	{"kipsala", "Ķīpsala"},
	{"kleisti", "Kleisti"},
	{"kliversala", "Klīversala"},
	{"krasta-st-area", "Krasta r-ns"},
	{"kundzinsala", "Kundziņsala"},
	{"maskavas-priekshpilseta", "Latgales priekšpilsēta"},
	{"lucavsala", "Lucavsala"},
	{"mangali", "Mangaļi"},
	{"mangalsala", "Mangaļsala"},
	{"mezhapark", "Mežaparks"},
	{"mezhciems", "Mežciems"},
	{"plyavnieki", "Pļavnieki"},
	{"purvciems", "Purvciems"},
	{"rumbula", "Rumbula"},
	{"shampeteris-pleskodale", "Šampēteris-Pleskodāle"},
	{"sarkandaugava", "Sarkandaugava"},
	{"shkirotava", "Šķirotava"},
	{"teika", "Teika"},
	{"tornjakalns", "Torņakalns"},
	{"trisciems", "Trīsciems"},
	{"vecaki", "Vecāķi"},
	{"vecdaugava", "Vecdaugava"},
	{"vecmilgravis", "Vecmīlgrāvis"},
	{"vecriga", "Vecrīga"},
	{"voleri", "Voleri"},
	{"zakusala", "Zaķusala"},
	{"zasulauks", "Zasulauks"},
	{"ziepniekkalns", "Ziepniekkalns"},
	{"zolitude", "Zolitūde"},
	{"vef", "VEF"},
	{"other", "Cits"},
}

// Browsable returns the districts shown in selection keyboards,
// i.e. everything except the "all" placeholder.
func Browsable() []District {
	out := make([]District, 0, len(All)-1)
	for _, d := range All {
		if d.Value != "all" {
			out = append(out, d)
		}
	}
	return out
}

// LabelFor returns the display label for a URL value.
// Unknown values are returned unchanged.
func LabelFor(value string) string {
	for _, d := range All {
		if d.Value == value {
			return d.Label
		}
	}
	return value
}

// ValueFor returns the URL value for a display label, or "" if the label
// is not in the table. Labels are matched case-insensitively.
func ValueFor(label string) string {
	for _, d := range All {
		if strings.EqualFold(d.Label, label) {
			return d.Value
		}
	}
	return ""
}

// CanonicalLabel resolves free-form user input to the canonical display
// label, accepting either the URL value or the label in any case.
// Input not in the table is returned unchanged.
func CanonicalLabel(input string) string {
	for _, d := range All {
		if strings.EqualFold(d.Value, input) || strings.EqualFold(d.Label, input) {
			return d.Label
		}
	}
	return input
}
