// Package config loads application configuration from YAML and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	roomimage "room-stager/internal/image"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. STAGER_BRUSH_DEFAULT.
const EnvPrefix = "STAGER"

// DefaultConfigPath is where the config file is looked up when none is given.
var DefaultConfigPath = filepath.Join(".stager", "config.yaml")

// Config is the full application configuration.
type Config struct {
	Normalizer   NormalizerConfig   `yaml:"normalizer" mapstructure:"normalizer"`
	Brush        BrushConfig        `yaml:"brush" mapstructure:"brush"`
	Pointer      PointerConfig      `yaml:"pointer" mapstructure:"pointer"`
	Placement    PlacementConfig    `yaml:"placement" mapstructure:"placement"`
	Collaborator CollaboratorConfig `yaml:"collaborator" mapstructure:"collaborator"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// NormalizerConfig controls photo normalization.
type NormalizerConfig struct {
	MaxDimension int      `yaml:"max_dimension" mapstructure:"max_dimension"`
	Ratios       []string `yaml:"ratios" mapstructure:"ratios"`
}

// BrushConfig holds brush sizes in display pixels.
type BrushConfig struct {
	Default float64 `yaml:"default" mapstructure:"default"`
	Min     float64 `yaml:"min" mapstructure:"min"`
	Max     float64 `yaml:"max" mapstructure:"max"`
}

// PointerConfig controls input routing.
type PointerConfig struct {
	ClickCooldown time.Duration `yaml:"click_cooldown" mapstructure:"click_cooldown"`
}

// PlacementConfig controls the product overlay.
type PlacementConfig struct {
	ScaleMin   float64 `yaml:"scale_min" mapstructure:"scale_min"`
	ScaleMax   float64 `yaml:"scale_max" mapstructure:"scale_max"`
	BaseWidth  float64 `yaml:"base_width" mapstructure:"base_width"`
	HandleSize float64 `yaml:"handle_size" mapstructure:"handle_size"`
	WheelStep  float64 `yaml:"wheel_step" mapstructure:"wheel_step"`
}

// CollaboratorConfig configures the remote cleanup / render service.
type CollaboratorConfig struct {
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	CleanupTimeout time.Duration `yaml:"cleanup_timeout" mapstructure:"cleanup_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	MaxPolls       int           `yaml:"max_polls" mapstructure:"max_polls"`
	Retry          RetryConfig   `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig contains retry logic settings
type RetryConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	Multiplier     int           `yaml:"multiplier" mapstructure:"multiplier"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Debug bool `yaml:"debug" mapstructure:"debug"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Normalizer: NormalizerConfig{
			MaxDimension: 2048,
			Ratios:       []string{"1:1", "4:3", "3:4", "3:2", "2:3", "16:9", "9:16"},
		},
		Brush: BrushConfig{
			Default: 24,
			Min:     4,
			Max:     120,
		},
		Pointer: PointerConfig{
			ClickCooldown: 300 * time.Millisecond,
		},
		Placement: PlacementConfig{
			ScaleMin:   0.2,
			ScaleMax:   3.0,
			BaseWidth:  0.3,
			HandleSize: 24,
			WheelStep:  1.1,
		},
		Collaborator: CollaboratorConfig{
			BaseURL:        "http://localhost:8787",
			Timeout:        30 * time.Second,
			CleanupTimeout: 90 * time.Second,
			PollInterval:   2 * time.Second,
			MaxPolls:       60,
			Retry: RetryConfig{
				Enabled:        true,
				MaxAttempts:    3,
				InitialBackoff: 500 * time.Millisecond,
				MaxBackoff:     5 * time.Second,
				Multiplier:     2,
			},
		},
	}
}

// Validate checks values the engine relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.Normalizer.MaxDimension <= 0 {
		errs = append(errs, fmt.Errorf("normalizer.max_dimension must be positive, got %d", c.Normalizer.MaxDimension))
	}
	if len(c.Normalizer.Ratios) == 0 {
		errs = append(errs, errors.New("normalizer.ratios must not be empty"))
	} else if _, err := roomimage.ParseRatios(c.Normalizer.Ratios); err != nil {
		errs = append(errs, fmt.Errorf("normalizer.ratios: %w", err))
	}
	if c.Brush.Min <= 0 || c.Brush.Min > c.Brush.Max {
		errs = append(errs, fmt.Errorf("brush range [%g, %g] is invalid", c.Brush.Min, c.Brush.Max))
	}
	if c.Placement.ScaleMin <= 0 || c.Placement.ScaleMin > c.Placement.ScaleMax {
		errs = append(errs, fmt.Errorf("placement scale range [%g, %g] is invalid", c.Placement.ScaleMin, c.Placement.ScaleMax))
	}
	if c.Collaborator.MaxPolls <= 0 {
		errs = append(errs, fmt.Errorf("collaborator.max_polls must be positive, got %d", c.Collaborator.MaxPolls))
	}
	return errors.Join(errs...)
}

// NewViper returns a viper instance seeded with the defaults and bound to the
// STAGER_ environment prefix.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("normalizer.max_dimension", d.Normalizer.MaxDimension)
	v.SetDefault("normalizer.ratios", d.Normalizer.Ratios)
	v.SetDefault("brush.default", d.Brush.Default)
	v.SetDefault("brush.min", d.Brush.Min)
	v.SetDefault("brush.max", d.Brush.Max)
	v.SetDefault("pointer.click_cooldown", d.Pointer.ClickCooldown)
	v.SetDefault("placement.scale_min", d.Placement.ScaleMin)
	v.SetDefault("placement.scale_max", d.Placement.ScaleMax)
	v.SetDefault("placement.base_width", d.Placement.BaseWidth)
	v.SetDefault("placement.handle_size", d.Placement.HandleSize)
	v.SetDefault("placement.wheel_step", d.Placement.WheelStep)
	v.SetDefault("collaborator.base_url", d.Collaborator.BaseURL)
	v.SetDefault("collaborator.timeout", d.Collaborator.Timeout)
	v.SetDefault("collaborator.cleanup_timeout", d.Collaborator.CleanupTimeout)
	v.SetDefault("collaborator.poll_interval", d.Collaborator.PollInterval)
	v.SetDefault("collaborator.max_polls", d.Collaborator.MaxPolls)
	v.SetDefault("collaborator.retry.enabled", d.Collaborator.Retry.Enabled)
	v.SetDefault("collaborator.retry.max_attempts", d.Collaborator.Retry.MaxAttempts)
	v.SetDefault("collaborator.retry.initial_backoff", d.Collaborator.Retry.InitialBackoff)
	v.SetDefault("collaborator.retry.max_backoff", d.Collaborator.Retry.MaxBackoff)
	v.SetDefault("collaborator.retry.multiplier", d.Collaborator.Retry.Multiplier)
	v.SetDefault("logging.debug", d.Logging.Debug)
	return v
}

// Load reads configuration from path (or DefaultConfigPath when empty). A
// missing file yields the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	v := NewViper()

	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes the default configuration as YAML to path, creating
// parent directories. It refuses to overwrite unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}
	return Save(path, DefaultConfig())
}

// Save validates cfg and writes it as YAML to path.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
