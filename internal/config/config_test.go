package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToolConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ToolConfig
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: ToolConfig{
				Engine: EngineConfig{ConfigExtension: ".projconf.json"},
				Watch:  WatchConfig{DebounceDelay: 250 * time.Millisecond},
			},
		},
		{
			name: "extension missing leading dot",
			cfg: ToolConfig{
				Engine: EngineConfig{ConfigExtension: "projconf.json"},
			},
			wantErr: true,
		},
		{
			name: "negative debounce",
			cfg: ToolConfig{
				Engine: EngineConfig{ConfigExtension: ".projconf.json"},
				Watch:  WatchConfig{DebounceDelay: -1},
			},
			wantErr: true,
		},
		{
			name: "target with path traversal",
			cfg: ToolConfig{
				Engine:  EngineConfig{ConfigExtension: ".projconf.json"},
				Targets: []string{"../../etc/passwd"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateToolConfig(&tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultConfigExtension, cfg.Engine.ConfigExtension)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.DebounceDelay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}
