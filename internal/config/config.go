// Package config loads the fieldarray CLI configuration from defaults,
// an optional YAML file, environment variables and bound flags.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. GUDAFEM_ARRAY_LAYOUT.
const EnvPrefix = "GUDAFEM"

// Config represents the application configuration
type Config struct {
	Device  DeviceConfig  `mapstructure:"device"`
	Array   ArrayConfig   `mapstructure:"array"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type DeviceConfig struct {
	Name          string `mapstructure:"name"`
	MemoryLimitMB int64  `mapstructure:"memory_limit_mb"`
}

type ArrayConfig struct {
	Layout     string `mapstructure:"layout"`
	Element    string `mapstructure:"element"`
	Extents    []int  `mapstructure:"extents"`
	Transposed bool   `mapstructure:"transposed"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:          "",
			MemoryLimitMB: 0,
		},
		Array: ArrayConfig{
			Layout:     "planar",
			Element:    "float64",
			Extents:    []int{3, 4, 2},
			Transposed: false,
		},
		Logging: LoggingConfig{
			Level:   "warn",
			File:    "",
			Console: true,
		},
	}
}

// Load reads cfgFile (if non-empty) over the defaults and applies
// environment overrides. v may carry flag bindings; nil uses a fresh
// viper instance.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	setDefaults(v, DefaultConfig())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Device.MemoryLimitMB < 0 {
		return errors.New("device.memory_limit_mb must not be negative")
	}

	validLayouts := []string{"interleaved", "planar"}
	if !slices.Contains(validLayouts, c.Array.Layout) {
		return fmt.Errorf("array.layout must be one of: %v", validLayouts)
	}

	validElements := []string{"float32", "float64", "int32", "int64"}
	if !slices.Contains(validElements, c.Array.Element) {
		return fmt.Errorf("array.element must be one of: %v", validElements)
	}

	if len(c.Array.Extents) == 0 || len(c.Array.Extents) > 4 {
		return fmt.Errorf("array.extents must have 1 to 4 entries, got %d", len(c.Array.Extents))
	}
	for i, n := range c.Array.Extents {
		if n <= 0 {
			return fmt.Errorf("array.extents[%d] must be positive, got %d", i, n)
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// MemoryLimitBytes converts the configured limit for gudafem.WithMemoryLimit.
func (c *Config) MemoryLimitBytes() int64 {
	return c.Device.MemoryLimitMB << 20
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("device.name", cfg.Device.Name)
	v.SetDefault("device.memory_limit_mb", cfg.Device.MemoryLimitMB)

	v.SetDefault("array.layout", cfg.Array.Layout)
	v.SetDefault("array.element", cfg.Array.Element)
	v.SetDefault("array.extents", cfg.Array.Extents)
	v.SetDefault("array.transposed", cfg.Array.Transposed)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.console", cfg.Logging.Console)
}
