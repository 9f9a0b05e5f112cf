package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure AnswerComposer implements the interface.
var _ driving.AnswerService = (*AnswerComposer)(nil)

// AnswerComposer answers a question from retrieved context with one LLM call.
type AnswerComposer struct {
	runtime   *Runtime
	retriever *Retriever
	prompts   driven.PromptStore
}

// NewAnswerComposer creates a composer.
func NewAnswerComposer(runtime *Runtime, retriever *Retriever, prompts driven.PromptStore) *AnswerComposer {
	return &AnswerComposer{
		runtime:   runtime,
		retriever: retriever,
		prompts:   prompts,
	}
}

// Ask retrieves context for question and returns the model's answer with
// its parsed sources.
func (a *AnswerComposer) Ask(ctx context.Context, question string) (*domain.AnswerRecord, error) {
	return a.AskK(ctx, question, 0)
}

// AskK is Ask with an explicit retrieval depth.
func (a *AnswerComposer) AskK(ctx context.Context, question string, k int) (*domain.AnswerRecord, error) {
	logger.Section("Answer")

	a.runtime.mu.RLock()
	defer a.runtime.mu.RUnlock()

	retrieved, err := a.retriever.retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}

	llm, err := a.runtime.LLM()
	if err != nil {
		return nil, err
	}

	messages, err := a.buildMessages(question, retrieved)
	if err != nil {
		return nil, err
	}

	settings := a.runtime.Settings().LLM
	reply, err := llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer, rawSources := ParseAnswer(reply)
	record := &domain.AnswerRecord{
		Question:   question,
		Answer:     answer,
		Sources:    ParseSources(rawSources),
		RawSources: rawSources,
		Context:    retrieved,
	}
	logger.Debug("answer has %d chars and %d sources", len(record.Answer), len(record.Sources))
	return record, nil
}

func (a *AnswerComposer) buildMessages(question string, retrieved domain.RetrievalResult) ([]driven.ChatMessage, error) {
	system, err := a.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}
	user, err := a.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}

	return []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: RenderUserPrompt(user, BuildContext(retrieved), question)},
	}, nil
}

// RenderUserPrompt fills the {context} and {question} placeholders in one
// pass, so placeholder text inside the context is left alone. Templates
// from older versions use two %s markers, filled by position. A template
// with no markers gets the context and question appended.
func RenderUserPrompt(template, contextBlock, question string) string {
	if strings.Contains(template, driven.PlaceholderContext) || strings.Contains(template, driven.PlaceholderQuestion) {
		return strings.NewReplacer(
			driven.PlaceholderContext, contextBlock,
			driven.PlaceholderQuestion, question,
		).Replace(template)
	}
	if parts := strings.SplitN(template, "%s", 3); len(parts) == 3 {
		return parts[0] + contextBlock + parts[1] + question + parts[2]
	}
	return strings.TrimRight(template, "\n") + "\n\nContext:\n" + contextBlock + "\n\nQuestion: " + question
}

// BuildContext renders retrieved chunks in rank order as
// "Content: ...\nSource: ..." blocks separated by blank lines.
func BuildContext(retrieved domain.RetrievalResult) string {
	blocks := make([]string, 0, len(retrieved.Chunks))
	for _, c := range retrieved.Chunks {
		blocks = append(blocks, "Content: "+c.Text+"\nSource: "+c.Locator)
	}
	return strings.Join(blocks, "\n\n")
}
