package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IngestInput is the input schema for the ingest_urls tool.
type IngestInput struct {
	URLs []string `json:"urls" jsonschema:"web page URLs to index; the previous collection is replaced"`
}

// IngestOutput is the output schema for the ingest_urls tool.
type IngestOutput struct {
	Ready     bool     `json:"ready"`
	Documents int      `json:"documents"`
	Chunks    int      `json:"chunks"`
	Progress  []string `json:"progress"`
	Skipped   []string `json:"skipped,omitempty"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed pages"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"text to find similar chunks for"`
	K     int    `json:"k,omitempty" jsonschema:"number of chunks to return (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_urls",
		Description: "Replace the indexed collection with the content of the given web pages",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed pages and list the source URLs",
	}, s.handleAsk)

	if s.ports.Retrieval != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "retrieve",
			Description: "Return the indexed chunks most similar to a query",
		}, s.handleRetrieve)
	}
}

// handleIngest handles the ingest_urls tool invocation. Progress messages
// are collected and returned with the result.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	output := IngestOutput{Progress: []string{}}

	report, err := s.ports.Ingest.Ingest(ctx, input.URLs, func(e domain.ProgressEvent) {
		output.Progress = append(output.Progress, e.Message)
	})
	if report != nil {
		output.Documents = report.Documents
		output.Chunks = report.Chunks
		for _, f := range report.Failures {
			var fe *domain.FetchError
			if errors.As(f, &fe) {
				output.Skipped = append(output.Skipped, fe.Locator)
			}
		}
	}
	if err != nil {
		return nil, output, err
	}

	output.Ready = true
	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	record, err := s.ports.Answer.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  record.Answer,
		Sources: record.Sources,
	}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	result, err := s.ports.Retrieval.Retrieve(ctx, input.Query, input.K)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Chunks: make([]ChunkOutput, len(result.Chunks)),
		Count:  len(result.Chunks),
	}
	for i, c := range result.Chunks {
		output.Chunks[i] = ChunkOutput{
			ID:      c.ID,
			Source:  c.Locator,
			Score:   c.Score,
			Content: c.Text,
		}
	}
	return nil, output, nil
}
