package service

import (
	"time"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
)

const fixtureVerificationExplanation = "Image appears to show authentic disaster context. No obvious signs of manipulation detected."

func mockSocialPosts(now time.Time) []domain.SocialPost {
	return []domain.SocialPost{
		{Post: "#floodhelp Need boats in Indore", User: "citizenA", Timestamp: now, Priority: "urgent"},
		{Post: "Water level rising by hour", User: "citizenB", Timestamp: now, Priority: "high"},
		{Post: "Shelter at Main St open", User: "reliefOrg", Timestamp: now, Priority: "normal"},
		{Post: "Trapped near City Mall, need rescue", User: "citizenC", Timestamp: now, Priority: "urgent"},
		{Post: "Trapped near City Mall, need rescue", User: "citizenC", Timestamp: now, Priority: "urgent"},
	}
}

func sampleResources(disasterID string) []domain.Resource {
	return []domain.Resource{
		{ID: "sample-1", DisasterID: disasterID, Name: "Red Cross Shelter", LocationName: "Lower East Side, NYC", Type: "shelter", Distance: "2.5km"},
		{ID: "sample-2", DisasterID: disasterID, Name: "NYC Medical Center", LocationName: "Manhattan, NYC", Type: "hospital", Distance: "5.1km"},
		{ID: "sample-3", DisasterID: disasterID, Name: "Emergency Food Distribution", LocationName: "Chinatown, NYC", Type: "food", Distance: "3.8km"},
	}
}

func staticOfficialUpdates(now time.Time) []domain.OfficialUpdate {
	return []domain.OfficialUpdate{
		{
			Source:    "FEMA",
			Title:     "Emergency Response Team Deployed to NYC Flood Zone",
			Timestamp: now,
			URL:       "https://www.fema.gov/news-release/2024/01/emergency-response-team-deployed-nyc",
		},
		{
			Source:    "Red Cross",
			Title:     "Emergency Shelters Open in Manhattan",
			Timestamp: now,
			URL:       "https://www.redcross.org/news/press-release/2024/01/emergency-shelters-manhattan",
		},
		{
			Source:    "NYC Emergency Management",
			Title:     "Flood Warning Extended for Lower Manhattan",
			Timestamp: now,
			URL:       "https://www1.nyc.gov/site/em/index.page",
		},
	}
}
