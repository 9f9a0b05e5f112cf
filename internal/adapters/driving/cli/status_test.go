package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestStatusCmd_PrintsStatus(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "status")
	require.NoError(t, err)

	assert.Equal(t, 1, ts.attached)
	assert.Contains(t, out, "Backend:    sqlite")
	assert.Contains(t, out, "Collection: documents")
	assert.Contains(t, out, "Ready:      yes")
	assert.Contains(t, out, "Entries:    4")
	assert.Contains(t, out, "Embedding:  all-minilm")
}

func TestStatusCmd_NotReady(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingest.status = domain.IndexStatus{Backend: "memory", Collection: "documents"}

	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Ready:      no")
	assert.NotContains(t, out, "Embedding:")
}

func TestStatusCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "status", "--json")
	require.NoError(t, err)

	var got domain.IndexStatus
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &got))
	assert.Equal(t, 4, got.Entries)
	assert.True(t, got.Ready)
}

func TestStatusCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingest.statusEr = domain.ErrVectorIndexUnavailable

	_, err := run(t, "status")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrVectorIndexUnavailable))
}
