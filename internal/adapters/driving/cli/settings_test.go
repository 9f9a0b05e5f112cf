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

func TestSettingsCmd_Show(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "settings")
	require.NoError(t, err)

	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "[llm]")
	assert.Contains(t, out, "  provider: groq (default)")
	assert.Contains(t, out, "  api_key: ****1234 (env)")
	assert.Contains(t, out, "[chunk]")
	assert.Contains(t, out, "  size: 1000 (file)")
}

func TestSettingsCmd_ShowUnsetValue(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.entries = []domain.SettingEntry{{Key: "llm.api_key", Secret: true, Source: domain.SettingSourceDefault}}

	out, err := run(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "api_key: (not set) (default)")
}

func TestSettingsCmd_ShowJSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "settings", "show", "--json")
	require.NoError(t, err)

	var got []domain.SettingEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "****1234", got[1].Value)
}

func TestSettingsCmd_Set(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "settings", "set", "chunk.size", "400")
	require.NoError(t, err)
	assert.Equal(t, "400", ts.settings.saved["chunk.size"])
	assert.Contains(t, out, "Saved chunk.size")
}

func TestSettingsCmd_SetSecretFromInput(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("gsk_secret\n"))
	out, err := run(t, "settings", "set", "llm.api_key")
	require.NoError(t, err)
	assert.Equal(t, "gsk_secret", ts.settings.saved["llm.api_key"])
	assert.Contains(t, out, "Enter llm.api_key: ")
	assert.NotContains(t, out, "gsk_secret")
}

func TestSettingsCmd_SetNeedsValue(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := run(t, "settings", "set", "chunk.size")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsCmd_SetRejected(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.setErr = domain.ErrInvalidInput

	_, err := run(t, "settings", "set", "chunk.size", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save setting")
}

func TestSettingsCmd_Unset(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "settings", "unset", "chunk.size")
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk.size"}, ts.settings.unset)
	assert.Contains(t, out, "Removed chunk.size")

	ts.settings.setErr = domain.ErrInvalidInput
	_, err = run(t, "settings", "unset", "bogus")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsCmd_Check(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "settings", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "reachable")

	ts.settings.checkErr = errors.New("llm: connection refused")
	_, err = run(t, "settings", "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key, section, field string
	}{
		{"llm.model", "llm", "model"},
		{"index.qdrant_url", "index", "qdrant_url"},
		{"data_dir", "general", "data_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			section, field := splitKey(tt.key)
			assert.Equal(t, tt.section, section)
			assert.Equal(t, tt.field, field)
		})
	}
}
