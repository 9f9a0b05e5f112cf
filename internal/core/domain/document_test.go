package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIndexedVector(t *testing.T) {
	c := Chunk{ID: "c1", DocumentID: "d1", Locator: "https://a.example", Text: "hello"}
	v := NewIndexedVector(c, []float32{1, 2})

	assert.Equal(t, "c1", v.ID)
	assert.Equal(t, "hello", v.Text)
	assert.Equal(t, "https://a.example", v.Locator)
	assert.Equal(t, []float32{1, 2}, v.Vector)
}

func TestRetrievalResult_Locators(t *testing.T) {
	r := RetrievalResult{Chunks: []RetrievedChunk{
		{ID: "1", Locator: "https://a.example/x"},
		{ID: "2", Locator: "https://b.example"},
		{ID: "3", Locator: "https://a.example/x"},
	}}

	assert.Equal(t, []string{"https://a.example/x", "https://b.example"}, r.Locators())
}

func TestAnswerRecord_SourcesString(t *testing.T) {
	a := AnswerRecord{Sources: []string{"https://a.example", "https://b.example"}}
	assert.Equal(t, "https://a.example\nhttps://b.example", a.SourcesString())
	assert.Empty(t, AnswerRecord{}.SourcesString())
}

func TestProgressEvent_Terminal(t *testing.T) {
	assert.False(t, ProgressEvent{Kind: ProgressInfo}.Terminal())
	assert.False(t, ProgressEvent{Kind: ProgressNote}.Terminal())
	assert.True(t, ProgressEvent{Kind: ProgressReady}.Terminal())
	assert.True(t, ProgressEvent{Kind: ProgressWarning}.Terminal())
	assert.True(t, ProgressEvent{Kind: ProgressError}.Terminal())
}
