package domain

import "time"

// ScanType discriminates history entries.
type ScanType string

const (
	ScanTypeScan   ScanType = "scan"
	ScanTypeSearch ScanType = "search"
)

// Nutrition is the macro breakdown attached to a scan or search.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Carbs    float64 `json:"carbs"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
}

// ScanHistoryEntry is one photo scan or name search in a user's history.
type ScanHistoryEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Type      ScanType  `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ImageURL  string    `json:"image,omitempty"`
	Query     string    `json:"query,omitempty"`
	Nutrition Nutrition `json:"nutrition"`
	Demo      bool      `json:"demo,omitempty"`
}
