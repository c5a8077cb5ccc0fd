package model

import "time"

// FetchedPage represents a page retrieved during discovery.
type FetchedPage struct {
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	HTML       string    `json:"html,omitempty"`
	StatusCode int       `json:"status_code"`
	FetchedAt  time.Time `json:"fetched_at"`
}
