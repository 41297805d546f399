// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NotNil(t, cfg)

	timing := cfg.Desktop().Timing
	assert.Equal(t, time.Second, timing.LauncherWait)
	assert.Equal(t, 2*time.Second, timing.AppSettle)
	assert.Equal(t, 1500*time.Millisecond, timing.ActionSettle)
	assert.Equal(t, time.Second, timing.TypeSettle)
	assert.Equal(t, 1500*time.Millisecond, timing.WindowSettle)
	assert.Equal(t, 500*time.Millisecond, timing.RestoreWait)
	assert.Equal(t, 1500*time.Millisecond, timing.RecoverySettle)
	assert.Equal(t, 2*time.Second, timing.DefaultRetryDelay)

	assert.Equal(t, 0.95, cfg.Desktop().SimilarityThreshold)
	assert.True(t, cfg.Desktop().FailSafe.Enabled, "the interlock is on unless explicitly disabled")
	assert.NotEmpty(t, cfg.Desktop().UndoCombo)
	assert.NotEmpty(t, cfg.Desktop().LauncherKey)
	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "otto", cfg.Logger().ServiceName)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server().Addr)
	assert.True(t, cfg.Journal().Enabled)
	assert.Equal(t, 12, cfg.Agent().MaxToolRounds)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("YAML overrides defaults", func(t *testing.T) {
		yamlBytes := []byte(`
logger:
  level: debug
desktop:
  timing:
    action_settle: 250ms
    default_retry_delay: 3s
  undo_combo: "cmd+z"
  failsafe:
    corner_margin: 4
server:
  addr: "127.0.0.1:9999"
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Logger().Level)
		assert.Equal(t, 250*time.Millisecond, cfg.Desktop().Timing.ActionSettle)
		assert.Equal(t, 3*time.Second, cfg.Desktop().Timing.DefaultRetryDelay)
		// Untouched keys keep their defaults.
		assert.Equal(t, time.Second, cfg.Desktop().Timing.TypeSettle)
		assert.Equal(t, "cmd+z", cfg.Desktop().UndoCombo)
		assert.Equal(t, 4, cfg.Desktop().FailSafe.CornerMargin)
		assert.Equal(t, "127.0.0.1:9999", cfg.Server().Addr)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("desktop.similarity_threshold", 1.5)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "similarity_threshold must be between 0.0 and 1.0")
	})

	t.Run("Negative delay rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("desktop.timing.window_settle", "-1s")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timing.window_settle must not be negative")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		t.Setenv("OTTO_AGENT_API_KEY", "env-key-123")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "env-key-123", cfg.Agent().APIKey)
	})

	t.Run("Journal path required when enabled", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("journal.path", "")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "journal.path is required")

		v.Set("journal.enabled", false)
		_, err = NewConfigFromViper(v)
		assert.NoError(t, err)
	})
}

func TestAgentConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AgentConfig
		wantErr string
	}{
		{"valid", AgentConfig{MaxToolRounds: 1, RequestsPerMinute: 1}, ""},
		{"zero rounds", AgentConfig{MaxToolRounds: 0, RequestsPerMinute: 1}, "max_tool_rounds"},
		{"zero rate", AgentConfig{MaxToolRounds: 1, RequestsPerMinute: 0}, "requests_per_minute"},
		{"negative retries", AgentConfig{MaxToolRounds: 1, RequestsPerMinute: 1, MaxRetries: -1}, "max_retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
