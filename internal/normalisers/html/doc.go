// Package html provides a Normaliser implementation for web pages.
// It extracts readable text from HTML, dropping scripts, styles and page
// chrome, decoding entities and keeping paragraph structure for splitting.
package html
