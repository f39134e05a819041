package domain

import "time"

// DataSource tells clients where a feed payload came from.
type DataSource string

const (
	SourceLive    DataSource = "live"
	SourceFixture DataSource = "fixture"
	SourceCache   DataSource = "cache"
)

// SocialPost is a single item in the social-media feed.
type SocialPost struct {
	Post      string    `json:"post"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	Priority  string    `json:"priority"`
}

// Resource is a relief resource near a disaster.
type Resource struct {
	ID           string  `json:"id"`
	DisasterID   string  `json:"disaster_id"`
	Name         string  `json:"name"`
	LocationName string  `json:"location_name"`
	Type         string  `json:"type"`
	Lat          float64 `json:"lat,omitempty"`
	Lng          float64 `json:"lng,omitempty"`
	Distance     string  `json:"distance,omitempty"`
}

// OfficialUpdate is a headline from a government or relief website.
type OfficialUpdate struct {
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
}

// Verification is the outcome of an image authenticity check.
type Verification struct {
	Status      string    `json:"status"`
	Confidence  string    `json:"confidence"`
	Explanation string    `json:"explanation"`
	ImageURL    string    `json:"image_url"`
	DisasterID  string    `json:"disaster_id"`
	Timestamp   time.Time `json:"timestamp"`
}
