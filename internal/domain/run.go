package domain

import "time"

// Run is an archived report generation.
type Run struct {
	ID           string    `json:"id"`
	Locales      []string  `json:"locales"`
	Translate    bool      `json:"translate"`
	FetchedAt    time.Time `json:"fetched_at"`
	ReviewCount  int       `json:"review_count"`
	AverageScore *float64  `json:"average_score,omitempty"` // nil when the run had no reviews
	CreatedAt    time.Time `json:"created_at"`
}
