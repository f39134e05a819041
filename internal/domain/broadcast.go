package domain

import (
	"context"
	"time"
)

// Push event names.
const (
	EventDisasterUpdated        = "disaster_updated"
	EventSocialMediaUpdated     = "social_media_updated"
	EventResourcesUpdated       = "resources_updated"
	EventOfficialUpdatesUpdated = "official_updates_updated"
)

// Broadcaster pushes events to connected subscribers. Delivery is best
// effort and at most once; implementations log their own failures.
type Broadcaster interface {
	BroadcastGlobal(ctx context.Context, event string, payload any)
	BroadcastToGroup(ctx context.Context, group, event string, payload any)
}

// DisasterGroup is the subscriber group for a disaster's scoped events.
func DisasterGroup(disasterID string) string {
	return "disaster_" + disasterID
}

// DisasterEvent is the payload of disaster_updated. Disaster is set on
// create and update, DisasterID on delete.
type DisasterEvent struct {
	Type       string    `json:"type"`
	Disaster   *Disaster `json:"disaster,omitempty"`
	DisasterID string    `json:"disaster_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	User       string    `json:"user"`
}

// SocialMediaEvent is the payload of social_media_updated.
type SocialMediaEvent struct {
	DisasterID string       `json:"disasterId"`
	Posts      []SocialPost `json:"posts"`
	Timestamp  time.Time    `json:"timestamp"`
}

// ResourcesEvent is the payload of resources_updated.
type ResourcesEvent struct {
	DisasterID string     `json:"disasterId"`
	Resources  []Resource `json:"resources"`
	Timestamp  time.Time  `json:"timestamp"`
}

// OfficialUpdatesEvent is the payload of official_updates_updated.
type OfficialUpdatesEvent struct {
	DisasterID string           `json:"disasterId"`
	Updates    []OfficialUpdate `json:"updates"`
	Timestamp  time.Time        `json:"timestamp"`
}
