package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view ViewType
		want string
	}{
		{ViewWorkspace, "workspace"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.view.String())
		})
	}
}

func TestIngestProgress_CarriesEvent(t *testing.T) {
	msg := IngestProgress{Event: domain.ProgressEvent{Kind: domain.ProgressReady, Message: "Done! Vector database is ready."}}
	assert.True(t, msg.Event.Terminal())
}

func TestAnswerCompleted_CarriesError(t *testing.T) {
	msg := AnswerCompleted{Err: errors.New("boom")}
	assert.Nil(t, msg.Record)
	assert.EqualError(t, msg.Err, "boom")
}
