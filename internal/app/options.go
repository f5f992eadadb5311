package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"room-stager/internal/collab"
	"room-stager/internal/config"
	roomimage "room-stager/internal/image"
	"room-stager/internal/mask"
	"room-stager/internal/placement"
)

// Options configures a Session.
type Options struct {
	MaxDimension   int
	Ratios         []roomimage.AspectRatio
	Brush          mask.Options
	ClickCooldown  time.Duration
	Placement      placement.Options
	CleanupTimeout time.Duration
	PollInterval   time.Duration
	MaxPolls       int
}

// OptionsFromConfig maps the loaded configuration onto session options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	ratios, err := roomimage.ParseRatios(cfg.Normalizer.Ratios)
	if err != nil {
		return Options{}, fmt.Errorf("normalizer.ratios: %w", err)
	}
	return Options{
		MaxDimension:  cfg.Normalizer.MaxDimension,
		Ratios:        ratios,
		Brush:         MaskOptions(cfg),
		ClickCooldown: cfg.Pointer.ClickCooldown,
		Placement: placement.Options{
			ScaleMin:   cfg.Placement.ScaleMin,
			ScaleMax:   cfg.Placement.ScaleMax,
			BaseWidth:  cfg.Placement.BaseWidth,
			HandleSize: cfg.Placement.HandleSize,
			WheelStep:  cfg.Placement.WheelStep,
		},
		CleanupTimeout: cfg.Collaborator.CleanupTimeout,
		PollInterval:   cfg.Collaborator.PollInterval,
		MaxPolls:       cfg.Collaborator.MaxPolls,
	}, nil
}

// MaskOptions returns the brush options from the configuration.
func MaskOptions(cfg *config.Config) mask.Options {
	return mask.Options{
		BrushSize: cfg.Brush.Default,
		BrushMin:  cfg.Brush.Min,
		BrushMax:  cfg.Brush.Max,
	}
}

// ClientConfig returns the collaborator client settings from the configuration.
func ClientConfig(cfg *config.Config) collab.ClientConfig {
	r := cfg.Collaborator.Retry
	return collab.ClientConfig{
		BaseURL: cfg.Collaborator.BaseURL,
		Timeout: cfg.Collaborator.Timeout,
		Retry: collab.RetryConfig{
			Enabled:        r.Enabled,
			MaxAttempts:    r.MaxAttempts,
			InitialBackoff: r.InitialBackoff,
			MaxBackoff:     r.MaxBackoff,
			Multiplier:     r.Multiplier,
		},
	}
}

func (o Options) withDefaults(l *zap.Logger) Options {
	if o.CleanupTimeout <= 0 {
		o.CleanupTimeout = 90 * time.Second
		l.Debug("cleanup timeout not set, using default", zap.Duration("timeout", o.CleanupTimeout))
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.MaxPolls <= 0 {
		o.MaxPolls = 60
	}
	return o
}
