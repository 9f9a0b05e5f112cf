// Package normalisers provides implementations of the Normaliser interface
// for the formats a web fetch returns. Each normaliser turns the bytes of
// one MIME type into readable text.
//
// The Registry dispatches on MIME type and falls back to plain text for
// unknown text-like content.
package normalisers
