package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(settings map[string]any) *viper.Viper {
	v := viper.New()
	v.SetDefault("max-depth", -1)
	v.SetDefault("format", "text")
	v.SetDefault("error-mode", "continue")
	for k, val := range settings {
		v.Set(k, val)
	}
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper(nil))
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.MaxDepth)
	assert.Equal(t, 0, cfg.MinDepth)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "continue", cfg.ErrorMode)
	assert.False(t, cfg.FollowLinks)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		wantErr  string
	}{
		{"bad format", map[string]any{"format": "xml"}, "invalid format"},
		{"bad error mode", map[string]any{"error-mode": "skip"}, "invalid error-mode"},
		{"negative min", map[string]any{"min-depth": -1}, "invalid min-depth"},
		{"max below -1", map[string]any{"max-depth": -2}, "invalid max-depth"},
		{"min above max", map[string]any{"min-depth": 3, "max-depth": 1}, "must not exceed"},
		{"verbose and silent", map[string]any{"verbose": true, "silent": true}, "mutually exclusive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(newTestViper(tt.settings))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigUnboundedMaxAllowsAnyMin(t *testing.T) {
	cfg, err := loadConfig(newTestViper(map[string]any{"min-depth": 5}))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MinDepth)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walkdir.yaml")
	require.NoError(t, os.WriteFile(path, []byte("follow-links: true\nmax-depth: 2\nformat: tree\nsort: true\n"), 0o644))

	v := newTestViper(nil)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.True(t, cfg.FollowLinks)
	assert.True(t, cfg.Sort)
	assert.Equal(t, 2, cfg.MaxDepth)
	assert.Equal(t, "tree", cfg.Format)
}
