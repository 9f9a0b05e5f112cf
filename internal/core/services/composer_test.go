package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func TestAsk_BeforeIngestIsNotInitialized(t *testing.T) {
	env := newTestEnv(t, corpus())

	_, err := env.composer.Ask(context.Background(), "What happened to rates?")
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
	assert.Nil(t, env.llm.messages)
}

func TestAsk_ReturnsAnswerAndDistinctSources(t *testing.T) {
	env := newTestEnv(t, corpus())
	env.llm.reply = "Rates rose.\nSOURCES: https://a.example/x, https://a.example/x\nhttps://b.example/y"
	_, _, err := env.ingest("https://a.example/x", "https://b.example/y")
	require.NoError(t, err)

	record, err := env.composer.Ask(context.Background(), "What happened to mortgage rates?")
	require.NoError(t, err)

	assert.Equal(t, "What happened to mortgage rates?", record.Question)
	assert.Equal(t, "Rates rose.", record.Answer)
	assert.Equal(t, []string{"https://a.example/x", "https://b.example/y"}, record.Sources)
	assert.Equal(t, "https://a.example/x\nhttps://b.example/y", record.SourcesString())
	assert.Len(t, record.Context.Chunks, domain.DefaultRetrievalK)
}

func TestAsk_ReplyWithoutSources(t *testing.T) {
	env := newTestEnv(t, corpus())
	env.llm.reply = "I could not find that in the provided context."
	_, _, err := env.ingest("https://b.example/y")
	require.NoError(t, err)

	record, err := env.composer.Ask(context.Background(), "Who won the match?")
	require.NoError(t, err)
	assert.Equal(t, "I could not find that in the provided context.", record.Answer)
	assert.NotNil(t, record.Sources)
	assert.Empty(t, record.Sources)
}

func TestAsk_PromptCarriesContextAndQuestion(t *testing.T) {
	env := newTestEnv(t, corpus())
	_, _, err := env.ingest("https://b.example/y")
	require.NoError(t, err)

	_, err = env.composer.Ask(context.Background(), "Why did housing starts fall?")
	require.NoError(t, err)

	require.Len(t, env.llm.messages, 2)
	assert.Equal(t, driven.RoleSystem, env.llm.messages[0].Role)
	assert.Equal(t, "Answer from context. End with SOURCES:", env.llm.messages[0].Content)
	assert.Equal(t, driven.RoleUser, env.llm.messages[1].Role)
	user := env.llm.messages[1].Content
	assert.Contains(t, user, "Content: Housing starts fell")
	assert.Contains(t, user, "\nSource: https://b.example/y")
	assert.Contains(t, user, "Question: Why did housing starts fall?")

	assert.Equal(t, domain.DefaultLLMMaxTokens, env.llm.opts.MaxTokens)
	assert.InDelta(t, domain.DefaultLLMTemperature, env.llm.opts.Temperature, 1e-9)
}

func TestAskK_LimitsContext(t *testing.T) {
	env := newTestEnv(t, corpus())
	_, _, err := env.ingest("https://a.example/x", "https://b.example/y", "https://c.example/z")
	require.NoError(t, err)

	record, err := env.composer.AskK(context.Background(), "policy rate", 1)
	require.NoError(t, err)
	assert.Len(t, record.Context.Chunks, 1)
}

func TestAsk_MissingAPIKey(t *testing.T) {
	env := newTestEnv(t, corpus(), func(e *testEnv) {
		e.settings.LLM.APIKey = ""
	})
	_, _, err := env.ingest("https://b.example/y")
	require.NoError(t, err)

	_, err = env.composer.Ask(context.Background(), "Why?")
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	assert.Nil(t, env.llm.messages)
}

func TestAsk_LLMFailure(t *testing.T) {
	env := newTestEnv(t, corpus())
	env.llm.err = errors.New("rate limited")
	_, _, err := env.ingest("https://b.example/y")
	require.NoError(t, err)

	_, err = env.composer.Ask(context.Background(), "Why?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestBuildContext(t *testing.T) {
	got := BuildContext(domain.RetrievalResult{Chunks: []domain.RetrievedChunk{
		{Text: "first", Locator: "https://a"},
		{Text: "second", Locator: "https://b"},
	}})
	assert.Equal(t, "Content: first\nSource: https://a\n\nContent: second\nSource: https://b", got)
	assert.Empty(t, BuildContext(domain.RetrievalResult{}))
}

// userPrompts serves the default system prompt and a custom user template.
type userPrompts struct{ user string }

func (p userPrompts) Load(name string) (string, error) {
	if name == driven.PromptAnswerUser {
		return p.user, nil
	}
	return fakePrompts{}.Load(name)
}

func (userPrompts) Reload() {}

func TestAsk_UserTemplateWithPercent(t *testing.T) {
	env := newTestEnv(t, corpus())
	_, _, err := env.ingest("https://b.example/y")
	require.NoError(t, err)

	composer := NewAnswerComposer(env.runtime, env.retriever, userPrompts{
		user: "Be 100% grounded in this context:\n{context}\n\nQuestion: {question}",
	})
	_, err = composer.Ask(context.Background(), "Why did housing starts fall?")
	require.NoError(t, err)

	user := env.llm.messages[1].Content
	assert.True(t, strings.HasPrefix(user, "Be 100% grounded in this context:\nContent: Housing starts fell"))
	assert.True(t, strings.HasSuffix(user, "Question: Why did housing starts fall?"))
	assert.NotContains(t, user, "%!")
}

func TestRenderUserPrompt(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"named placeholders", "C: {context}\nQ: {question}", "C: ctx\nQ: q?"},
		{"question first", "{question} / {context}", "q? / ctx"},
		{"literal percent", "100% {context} {question} %d", "100% ctx q? %d"},
		{"positional markers", "C: %s\nQ: %s", "C: ctx\nQ: q?"},
		{"no markers", "Answer briefly.\n", "Answer briefly.\n\nContext:\nctx\n\nQuestion: q?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderUserPrompt(tt.template, "ctx", "q?"))
		})
	}
}

func TestRenderUserPrompt_ContextIsNotExpanded(t *testing.T) {
	got := RenderUserPrompt("{context}|{question}", "page mentions {question} and 50%s", "q?")
	assert.Equal(t, "page mentions {question} and 50%s|q?", got)
}
