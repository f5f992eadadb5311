package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"room-stager/internal/config"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Normalizer.Ratios = []string{"16:9", "1:1"}
	cfg.Brush.Default = 30

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	require.Len(t, opts.Ratios, 2)
	assert.Equal(t, "16:9", opts.Ratios[0].Label)
	assert.Equal(t, 30.0, opts.Brush.BrushSize)
	assert.Equal(t, 300*time.Millisecond, opts.ClickCooldown)
	assert.Equal(t, 0.3, opts.Placement.BaseWidth)
	assert.Equal(t, 90*time.Second, opts.CleanupTimeout)
}

func TestOptionsFromConfigBadRatio(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Normalizer.Ratios = []string{"square"}
	_, err := OptionsFromConfig(cfg)
	assert.ErrorContains(t, err, "normalizer.ratios")
}

func TestClientConfig(t *testing.T) {
	cc := ClientConfig(config.DefaultConfig())
	assert.Equal(t, "http://localhost:8787", cc.BaseURL)
	assert.Equal(t, 30*time.Second, cc.Timeout)
	assert.True(t, cc.Retry.Enabled)
	assert.Equal(t, 3, cc.Retry.MaxAttempts)
}

func TestWithDefaults(t *testing.T) {
	o := Options{}.withDefaults(zap.NewNop())
	assert.Equal(t, 90*time.Second, o.CleanupTimeout)
	assert.Equal(t, 2*time.Second, o.PollInterval)
	assert.Equal(t, 60, o.MaxPolls)
}
