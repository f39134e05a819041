// Package domain models disaster reports and the data that hangs off them:
// audit trails, geocoded locations, cache entries and the auxiliary feeds
// (social posts, nearby resources, official updates, image verification).
//
// # Location Resolution
//
// Free-text descriptions become coordinates in two stages, each with a
// primary and a fallback tier:
//
//	extraction: language model  →  "in <place>" rule  →  first sentence
//	geocoding:  structured API  →  free-text search   →  ResolutionError
//
// Only exhausting a whole stage surfaces an error. The rule-based extractor
// lives here as [FallbackLocationName] so it can be tested without network
// fakes.
//
// # Cache Keys
//
// All memoized values share one store. Keys are namespaced by subsystem
// (geocode_, social_, resources_, updates_, verify_) and derived from the
// input by stripping every non-alphanumeric character; see [CacheKey].
// Entries carry an explicit expiry and are read as misses once it passes.
//
// # Audit Trail
//
// Every create, update and delete appends exactly one [AuditEntry]. The trail
// is append-only and ordered by timestamp.
package domain
