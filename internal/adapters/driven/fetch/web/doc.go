// Package web implements the Fetcher port over HTTP(S).
//
// Locators are fetched one at a time through a token-bucket limiter.
// Each response body is capped, its MIME type taken from Content-Type or
// sniffed, and delivered as a domain.RawDocument. Per-URL failures are
// reported as *domain.FetchError values and never stop the batch.
package web
