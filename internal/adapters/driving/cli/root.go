// Package cli provides the cobra command tree for sercha-rag.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Services holds the core services the commands drive.
// Retrieval, Settings and Attach are optional.
type Services struct {
	Ingest    driving.IngestService
	Answer    driving.AnswerService
	Retrieval driving.RetrievalService
	Settings  driving.SettingsAdmin

	// Attach reopens a collection completed by an earlier run. Only the
	// one-shot ask and status commands call it.
	Attach func(ctx context.Context) error
}

var (
	version = "dev"
	verbose bool

	ingestService    driving.IngestService
	answerService    driving.AnswerService
	retrievalService driving.RetrievalService
	settingsService  driving.SettingsAdmin
	attachFn         func(ctx context.Context) error
)

var errNotConfigured = errors.New("service not configured")

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Ask questions about web pages",
	Long: `Sercha RAG indexes the pages behind a few URLs and answers questions
about them with a language model, citing the pages it used.

  sercha-rag ingest https://example.com/a https://example.com/b
  sercha-rag ask "What does page a say about pricing?"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline steps to stderr")
}

// SetServices wires the services every command uses.
func SetServices(s Services) {
	ingestService = s.Ingest
	answerService = s.Answer
	retrievalService = s.Retrieval
	settingsService = s.Settings
	attachFn = s.Attach
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// requireLLM fails early when the configured LLM provider has no API key.
func requireLLM() error {
	if settingsService == nil {
		return nil
	}
	return settingsService.RequireLLM()
}

// attach reopens the persisted collection if an attach hook is wired.
// Sessions (tui, mcp serve) never attach.
func attach(ctx context.Context) error {
	if attachFn == nil {
		return nil
	}
	return attachFn(ctx)
}
