// Package driving defines what the CLI, TUI and MCP adapters may ask of the
// core: ingest URLs, answer questions, retrieve chunks and read settings.
//
// Implementations live in internal/core/services.
package driving
