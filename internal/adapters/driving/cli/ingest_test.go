package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestIngestCmd_RequiresURL(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := run(t, "ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIngestCmd_PrintsProgress(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "ingest", "https://a.example", "https://b.example")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, ts.ingest.got)
	assert.Contains(t, out, "Initializing Components...")
	assert.Contains(t, out, "Done! Vector database is ready.")
	assert.Contains(t, out, "Indexed 4 chunks from 2 documents.")
}

func TestIngestCmd_WarningsAndErrors(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	ts.ingest.events = []domain.ProgressEvent{
		{Stage: domain.StageFetch, Kind: domain.ProgressWarning, Message: "No documents could be loaded"},
		{Stage: domain.StageFetch, Kind: domain.ProgressError, Message: "ingestion stopped"},
	}
	ts.ingest.err = fmt.Errorf("load: %w", domain.ErrAllFetchesFailed)

	out, err := run(t, "ingest", "https://down.example")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAllFetchesFailed))
	assert.Contains(t, out, "warning: No documents could be loaded")
	assert.Contains(t, out, "error: ingestion stopped")
	assert.NotContains(t, out, "Indexed")
}

func TestIngestCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := run(t, "ingest", "https://a.example")
	require.Error(t, err)
	assert.ErrorIs(t, err, errNotConfigured)
}
