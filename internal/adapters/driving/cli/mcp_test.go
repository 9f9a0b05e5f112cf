package cli

import (
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestMCPCmd_HasServe(t *testing.T) {
	var found bool
	for _, c := range mcpCmd.Commands() {
		if c.Name() == "serve" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMCPServeCmd_HasPortFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestMCPServeCmd_MissingAPIKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.requireErr = fmt.Errorf("GROQ_API_KEY: %w", domain.ErrMissingAPIKey)

	_, err := run(t, "mcp", "serve")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	assert.Zero(t, ts.attached)
}

func TestMCPServeCmd_MissingServices(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := run(t, "mcp", "serve")
	require.Error(t, err)
}

func TestMCPServeCmd_SessionDoesNotAttach(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	var gotPort int
	var gotServer *mcp.Server
	serveMCP = func(_ *cobra.Command, server *mcp.Server, port int) error {
		gotServer, gotPort = server, port
		return nil
	}

	_, err := run(t, "mcp", "serve", "--port", "8089")
	require.NoError(t, err)
	assert.NotNil(t, gotServer)
	assert.Equal(t, 8089, gotPort)
	assert.Zero(t, ts.attached, "a server session must index before it answers")
}
