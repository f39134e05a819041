package domain

import (
	"regexp"
	"strings"
)

var (
	// inPlaceRe captures the place after "in", stopping at "due", "because",
	// sentence punctuation or end of text: "Flood in Manhattan due to rain" -> "Manhattan".
	inPlaceRe = regexp.MustCompile(`(?i)\bin\s+([A-Za-z ]+?)(?:\s+due|\s+because|[.!]|$)`)

	nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// Cache key namespaces.
const (
	NamespaceGeocode   = "geocode_"
	NamespaceSocial    = "social_"
	NamespaceResources = "resources_"
	NamespaceUpdates   = "updates_"
	NamespaceVerify    = "verify_"
)

// CacheKey derives a deterministic key by stripping every non-alphanumeric
// character from input and prefixing the namespace.
func CacheKey(namespace, input string) string {
	return namespace + nonAlnumRe.ReplaceAllString(input, "")
}

// GeocodeResult is a resolved location name with its coordinates.
type GeocodeResult struct {
	LocationName string  `json:"location_name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

// Coordinates is a bare latitude/longitude pair returned by geocoders.
type Coordinates struct {
	Lat float64
	Lng float64
}

// FallbackLocationName applies the rule-based extractor: the text after
// "in" when the description has such a clause, otherwise everything before
// the first '.' or '!'. Returns "" when neither yields any text.
func FallbackLocationName(description string) string {
	if m := inPlaceRe.FindStringSubmatch(description); len(m) == 2 {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	first, _, _ := strings.Cut(description, ".")
	first, _, _ = strings.Cut(first, "!")
	return strings.TrimSpace(first)
}
