package db

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no snapshot has the requested ID.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotSummary is a row in the snapshots table
type SnapshotSummary struct {
	ID               string    `json:"id"`
	League           string    `json:"league"`
	Label            string    `json:"snapshot"`
	TotalBuilds      int       `json:"totalBuilds"`
	AscendancyFilter *string   `json:"ascendancyFilter,omitempty"`
	MinLevel         *int      `json:"minLevel,omitempty"`
	MaxLevel         *int      `json:"maxLevel,omitempty"`
	ScrapedAt        time.Time `json:"scrapedAt"`
	Version          string    `json:"scraperVersion"`
	CreatedAt        int64     `json:"createdAt"` // Unix millis
}
