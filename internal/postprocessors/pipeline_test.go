package postprocessors

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// stubStage returns fixed chunks, or passes chunks through when none are set.
type stubStage struct {
	name   string
	chunks []domain.Chunk
	err    error
	calls  int
}

func (s *stubStage) Name() string { return s.name }

func (s *stubStage) Process(_ context.Context, _ *domain.SourceDocument, chunks []domain.Chunk) ([]domain.Chunk, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.chunks != nil {
		return s.chunks, nil
	}
	return chunks, nil
}

func testDoc() *domain.SourceDocument {
	return &domain.SourceDocument{
		ID:      "doc-1",
		Locator: "https://a.example/doc",
		Text:    "test content",
	}
}

func TestPipeline_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPipeline_NoStages(t *testing.T) {
	chunks, err := NewPipeline().Process(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks != nil {
		t.Errorf("expected nil chunks, got %v", chunks)
	}
}

func TestPipeline_StagesRunInOrder(t *testing.T) {
	second := []domain.Chunk{{ID: "c1", Text: "one"}, {ID: "c2", Text: "two"}}
	p := NewPipeline(
		&stubStage{name: "first", chunks: []domain.Chunk{{ID: "c0"}}},
		&stubStage{name: "second", chunks: second},
		&stubStage{name: "passthrough"},
	)

	chunks, err := p.Process(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 || chunks[1].ID != "c2" {
		t.Errorf("expected the second stage's chunks, got %+v", chunks)
	}
	if got := strings.Join(p.Stages(), ","); got != "first,second,passthrough" {
		t.Errorf("unexpected stage order %q", got)
	}
}

func TestPipeline_StageErrorNamesLocator(t *testing.T) {
	cause := errors.New("boom")
	after := &stubStage{name: "after"}
	p := NewPipeline(&stubStage{name: "failing", err: cause}, after)

	_, err := p.Process(context.Background(), testDoc())
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if !strings.Contains(err.Error(), "failing https://a.example/doc") {
		t.Errorf("error should name stage and locator: %v", err)
	}
	if after.calls != 0 {
		t.Error("later stages must not run after a failure")
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stage := &stubStage{name: "s"}

	_, err := NewPipeline(stage).Process(ctx, testDoc())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if stage.calls != 0 {
		t.Error("stage should not run on a cancelled context")
	}
}

func TestDefaultPipeline_SplitsWithProvenance(t *testing.T) {
	p, err := DefaultPipeline(domain.ChunkSettings{Size: 100, Overlap: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(p.Stages(), ","); got != "chunker,provenance" {
		t.Fatalf("unexpected stages %q", got)
	}

	doc := testDoc()
	doc.Text = "Paragraph one is here.\n\n" +
		"Paragraph two follows with some more words in it to pass the limit of one hundred."

	chunks, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Locator != doc.Locator || c.ID == "" || c.Position != i {
			t.Errorf("chunk %d missing provenance: %+v", i, c)
		}
		if n := utf8.RuneCountInString(c.Text); n > 100 {
			t.Errorf("chunk %d has %d runes, limit is 100", i, n)
		}
	}
}

func TestDefaultPipeline_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  domain.ChunkSettings
	}{
		{"zero size", domain.ChunkSettings{Size: 0}},
		{"negative overlap", domain.ChunkSettings{Size: 100, Overlap: -1}},
		{"overlap equals size", domain.ChunkSettings{Size: 100, Overlap: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DefaultPipeline(tt.cfg)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
