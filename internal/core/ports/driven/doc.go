// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Fetcher: Retrieves raw content for URLs
//   - Normaliser / NormaliserRegistry: Turns raw bytes into document text
//   - PostProcessor / PostProcessorPipeline: Splits documents into chunks
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Stores embedded chunks and answers similarity queries
//   - LLMService: Composes answers from retrieved context
//   - ConfigStore / PromptStore: Configuration and prompt templates
//
// # Optional Interfaces
//
//   - RebuildLock: Cross-process exclusion around index rebuilds. Nil means
//     only the in-process lock is used.
//   - AIConfigValidator: Connectivity checks for the configured providers
//   - EmbeddingModelReader: Indexes that record the model per collection
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
