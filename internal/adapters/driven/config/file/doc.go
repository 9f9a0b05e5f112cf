// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under ~/.sercha-rag.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates
//   - LoadEnv: optional .env file loading
package file
