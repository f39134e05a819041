package domain

import (
	"slices"
	"time"
)

// Audit actions recorded on a disaster's trail.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewGeoPoint builds a point from latitude and longitude, storing them in
// GeoJSON axis order.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

// Lat returns the latitude component.
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

// Lng returns the longitude component.
func (p GeoPoint) Lng() float64 { return p.Coordinates[0] }

// AuditEntry records one mutation of a disaster.
type AuditEntry struct {
	Action    string    `json:"action"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAuditEntry stamps an entry with the package clock.
func NewAuditEntry(action, userID string) AuditEntry {
	return AuditEntry{Action: action, UserID: userID, Timestamp: Now()}
}

// Disaster is a reported incident.
type Disaster struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Tags         []string     `json:"tags"`
	OwnerID      string       `json:"owner_id"`
	LocationName string       `json:"location_name"`
	Location     GeoPoint     `json:"location"`
	AuditTrail   []AuditEntry `json:"audit_trail"`
	CreatedAt    time.Time    `json:"created_at"`
}

// HasTag reports whether the disaster carries the given tag.
func (d Disaster) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}

// AppendAudit returns a copy of the trail with entry appended. The input
// slice is never modified.
func AppendAudit(trail []AuditEntry, entry AuditEntry) []AuditEntry {
	out := make([]AuditEntry, 0, len(trail)+1)
	out = append(out, trail...)
	return append(out, entry)
}

// CreateDisasterInput carries the fields a client supplies on creation.
type CreateDisasterInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	OwnerID     string   `json:"owner_id"`
}

// Validate checks required fields.
func (in CreateDisasterInput) Validate() error {
	if in.Title == "" || in.Description == "" {
		return NewValidationError("Title and description are required")
	}
	return nil
}

// UpdateDisasterInput carries a partial update. Nil fields are left unchanged.
type UpdateDisasterInput struct {
	Title        *string   `json:"title"`
	LocationName *string   `json:"location_name"`
	Description  *string   `json:"description"`
	Tags         *[]string `json:"tags"`
}

// Apply returns a copy of d with the non-nil fields replaced.
func (in UpdateDisasterInput) Apply(d Disaster) Disaster {
	if in.Title != nil {
		d.Title = *in.Title
	}
	if in.LocationName != nil {
		d.LocationName = *in.LocationName
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Tags != nil {
		d.Tags = slices.Clone(*in.Tags)
	}
	return d
}
