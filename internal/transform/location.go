package transform

// location.go - free-text location parsing

import "strings"

// Location is the structured form of a raw location string.
// City and StateProvince are nil when the raw text carries no such segment.
// Country is never empty: it falls back to "Unknown" (or "Remote" for
// remote-marker strings) when neither the text nor a hint provides one.
type Location struct {
	City          *string
	StateProvince *string
	Country       string
}

const (
	// CountryUnknown is the sentinel country for unparseable locations.
	CountryUnknown = "Unknown"
	// CountryRemote is the sentinel country for remote-marker locations.
	CountryRemote = "Remote"
)

// knownCountries is the controlled vocabulary used to disambiguate a single
// trailing segment between a city and a country. Lowercased for lookup.
var knownCountries = map[string]bool{
	"united states":        true,
	"usa":                  true,
	"united kingdom":       true,
	"uk":                   true,
	"canada":               true,
	"mexico":               true,
	"brazil":               true,
	"argentina":            true,
	"chile":                true,
	"colombia":             true,
	"peru":                 true,
	"france":               true,
	"germany":              true,
	"spain":                true,
	"portugal":             true,
	"italy":                true,
	"netherlands":          true,
	"belgium":              true,
	"switzerland":          true,
	"austria":              true,
	"poland":               true,
	"czechia":              true,
	"sweden":               true,
	"norway":               true,
	"denmark":              true,
	"finland":              true,
	"ireland":              true,
	"india":                true,
	"china":                true,
	"japan":                true,
	"south korea":          true,
	"singapore":            true,
	"malaysia":             true,
	"indonesia":            true,
	"philippines":          true,
	"thailand":             true,
	"vietnam":              true,
	"australia":            true,
	"new zealand":          true,
	"south africa":         true,
	"nigeria":              true,
	"kenya":                true,
	"egypt":                true,
	"israel":               true,
	"turkey":               true,
	"united arab emirates": true,
}

// remoteMarkers are raw strings that denote a fully remote posting.
var remoteMarkers = map[string]bool{
	"anywhere": true,
	"remote":   true,
}

// ParseLocation parses a free-text location string into city, state/province
// and country. countryHint is the separately sourced country field and, when
// non-empty, always wins over anything inferred from the text. The parse is
// deterministic: equal inputs always produce equal outputs.
func ParseLocation(raw, countryHint string) Location {
	raw = strings.TrimSpace(raw)
	hint := strings.TrimSpace(countryHint)

	if raw == "" {
		return Location{Country: fallback(hint, CountryUnknown)}
	}
	if remoteMarkers[strings.ToLower(raw)] {
		return Location{Country: fallback(hint, CountryRemote)}
	}

	parts := splitSegments(raw)
	country := hint

	var city, state *string
	switch {
	case len(parts) >= 3:
		// "City, State, Country"
		city = optional(parts[0])
		state = optional(parts[1])
		if country == "" {
			country = parts[len(parts)-1]
		}
	case len(parts) == 2:
		// "City, State" or "City, Country"
		city = optional(parts[0])
		if country == "" && isKnownCountry(parts[1]) {
			country = parts[1]
		} else {
			state = optional(parts[1])
		}
	case len(parts) == 1:
		if country == "" && isKnownCountry(parts[0]) {
			country = parts[0]
		} else {
			city = optional(parts[0])
		}
	}

	return Location{City: city, StateProvince: state, Country: fallback(country, CountryUnknown)}
}

// splitSegments splits raw on comma-like delimiters and trims each segment.
func splitSegments(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			parts = append(parts, t)
		}
	}
	return parts
}

func isKnownCountry(s string) bool {
	return knownCountries[strings.ToLower(strings.TrimSpace(s))]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
