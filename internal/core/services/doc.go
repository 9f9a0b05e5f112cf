// Package services implements the driving ports.
//
// The Runtime owns the embedder, index and LLM handles. The
// IndexingOrchestrator rebuilds the collection from URLs, the Retriever
// ranks chunks for a query, and the AnswerComposer turns retrieved chunks
// into a sourced answer. SettingsService resolves configuration.
package services
