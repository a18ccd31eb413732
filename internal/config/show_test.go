package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEffective(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.StateDB = "/data/state.db"

	var sb strings.Builder
	require.NoError(t, RenderEffective(cfg, &sb))

	out := sb.String()
	assert.Contains(t, out, `provider = "google-drive"`)
	assert.Contains(t, out, "[auth]")
	assert.Contains(t, out, defaultClientID)
	assert.Contains(t, out, `state_db  = "/data/state.db"`)
	assert.Contains(t, out, "allow_token_in_viewer_url = true")
	assert.Contains(t, out, `log_level  = "info"`)
	assert.Contains(t, out, `timeout    = "30s"`)
}

func TestRenderEffective_StateDBOmittedWhenEmpty(t *testing.T) {
	cfg := DefaultConfig()

	var sb strings.Builder
	require.NoError(t, RenderEffective(cfg, &sb))
	assert.NotContains(t, sb.String(), "state_db")
}
