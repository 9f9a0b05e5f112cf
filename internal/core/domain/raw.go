package domain

import "time"

// RawDocument represents opaque bytes fetched from a source locator.
// It is the fetcher's output before normalisation.
type RawDocument struct {
	// Locator is the URL the content was fetched from.
	Locator string

	// MIMEType is the content type without parameters (e.g., "text/html").
	MIMEType string

	// Content is the raw response body.
	Content []byte

	// StatusCode is the HTTP status returned for the locator.
	StatusCode int

	// FetchedAt is when the content was retrieved.
	FetchedAt time.Time

	// Metadata contains fetcher-specific key-value pairs.
	Metadata map[string]any
}
