package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STRICT_FIELDS", "RENDER_WIDTH"} {
		t.Setenv(key, "") // restored after the test
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.StrictFields)
	assert.Equal(t, 400, cfg.RenderWidth)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STRICT_FIELDS", "false")
	t.Setenv("RENDER_HEIGHT", "1200")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.False(t, cfg.StrictFields)
	assert.Equal(t, 1200, cfg.RenderHeight)

	t.Setenv("PORT", "not-a-port")
	_, err = Load()
	assert.Error(t, err)
}
