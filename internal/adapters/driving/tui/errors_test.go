package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrMissingIngestService, ErrMissingAnswerService))
	assert.Contains(t, ErrMissingIngestService.Error(), "tui:")
	assert.Contains(t, ErrMissingAnswerService.Error(), "tui:")
}
