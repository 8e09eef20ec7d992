package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/surface-packer/internal/packing"
	"github.com/eugenenazirov/surface-packer/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultSurfaceWidth   = 500
	defaultSurfaceHeight  = 500
	defaultMaxSurfaceSide = 4096
	// defaultMaxLayoutCost caps packing.ScanCost per layout; 500x500 with 62 blocks fits.
	defaultMaxLayoutCost = 500_000_000
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	Blocks               []packing.Size
	SurfaceWidth         int
	SurfaceHeight        int
	MaxSurfaceSide       int
	MaxLayoutCost        int64
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string         `yaml:"port"`
	Blocks               []packing.Size `yaml:"blocks"`
	Surface              yamlSurface    `yaml:"surface"`
	ShutdownGracePeriod  string         `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string         `yaml:"read_header_timeout"`
	WriteTimeout         string         `yaml:"write_timeout"`
	IdleTimeout          string         `yaml:"idle_timeout"`
	EnableRequestLogging *bool          `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit  `yaml:"rate_limit"`
}

// yamlSurface represents the surface section in YAML.
type yamlSurface struct {
	Width   int   `yaml:"width"`
	Height  int   `yaml:"height"`
	MaxSide int   `yaml:"max_side"`
	MaxCost int64 `yaml:"max_cost"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides. A nil field means the flag
// was not given.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	BlocksStr      *string
	SurfaceWidth   *int
	SurfaceHeight  *int
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables
	applyEnvConfig(&cfg)

	// Load from YAML file if specified (overrides env)
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Blocks:               storage.DefaultBlocks(),
		SurfaceWidth:         defaultSurfaceWidth,
		SurfaceHeight:        defaultSurfaceHeight,
		MaxSurfaceSide:       defaultMaxSurfaceSide,
		MaxLayoutCost:        defaultMaxLayoutCost,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if len(yamlCfg.Blocks) > 0 {
		cfg.Blocks = yamlCfg.Blocks
	}

	if yamlCfg.Surface.Width != 0 {
		cfg.SurfaceWidth = yamlCfg.Surface.Width
	}
	if yamlCfg.Surface.Height != 0 {
		cfg.SurfaceHeight = yamlCfg.Surface.Height
	}
	if yamlCfg.Surface.MaxSide != 0 {
		cfg.MaxSurfaceSide = yamlCfg.Surface.MaxSide
	}
	if yamlCfg.Surface.MaxCost != 0 {
		cfg.MaxLayoutCost = yamlCfg.Surface.MaxCost
	}

	applyDuration(&cfg.ShutdownGracePeriod, yamlCfg.ShutdownGracePeriod)
	applyDuration(&cfg.ReadHeaderTimeout, yamlCfg.ReadHeaderTimeout)
	applyDuration(&cfg.WriteTimeout, yamlCfg.WriteTimeout)
	applyDuration(&cfg.IdleTimeout, yamlCfg.IdleTimeout)

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.RateLimit.RPS != nil && *yamlCfg.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil && *yamlCfg.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
}

func applyDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if rawBlocks := strings.TrimSpace(os.Getenv("BLOCKS")); rawBlocks != "" {
		blocks, err := ParseBlocks(rawBlocks)
		if err == nil {
			cfg.Blocks = blocks
		}
	}

	applyEnvInt(&cfg.SurfaceWidth, "SURFACE_WIDTH")
	applyEnvInt(&cfg.SurfaceHeight, "SURFACE_HEIGHT")
	applyEnvInt(&cfg.MaxSurfaceSide, "MAX_SURFACE_SIDE")

	if raw := strings.TrimSpace(os.Getenv("MAX_LAYOUT_COST")); raw != "" {
		if value, err := strconv.ParseInt(raw, 10, 64); err == nil && value > 0 {
			cfg.MaxLayoutCost = value
		}
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

func applyEnvInt(dst *int, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if value, err := strconv.Atoi(raw); err == nil && value > 0 {
		*dst = value
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.BlocksStr != nil && *overrides.BlocksStr != "" {
		blocks, err := ParseBlocks(*overrides.BlocksStr)
		if err != nil {
			return fmt.Errorf("parse blocks: %w", err)
		}
		cfg.Blocks = blocks
	}

	// Explicit values pass through unchecked so validateConfig reports them.
	if overrides.SurfaceWidth != nil {
		cfg.SurfaceWidth = *overrides.SurfaceWidth
	}

	if overrides.SurfaceHeight != nil {
		cfg.SurfaceHeight = *overrides.SurfaceHeight
	}

	if overrides.RateLimitRPS != nil {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.MaxSurfaceSide <= 0 {
		return fmt.Errorf("MAX_SURFACE_SIDE must be positive")
	}
	if err := (packing.Size{Width: cfg.SurfaceWidth, Height: cfg.SurfaceHeight}).Validate(); err != nil {
		return fmt.Errorf("surface: %w", err)
	}
	if cfg.SurfaceWidth > cfg.MaxSurfaceSide || cfg.SurfaceHeight > cfg.MaxSurfaceSide {
		return fmt.Errorf("surface %dx%d: %w", cfg.SurfaceWidth, cfg.SurfaceHeight, packing.ErrSurfaceTooLarge)
	}
	if cfg.MaxLayoutCost <= 0 {
		return fmt.Errorf("MAX_LAYOUT_COST must be positive")
	}
	if err := storage.ValidateBlocks(cfg.Blocks); err != nil {
		return err
	}
	if cost := packing.ScanCost(cfg.SurfaceWidth, cfg.SurfaceHeight, len(cfg.Blocks)); cost > cfg.MaxLayoutCost {
		return fmt.Errorf("default layout cost %d over %d: %w", cost, cfg.MaxLayoutCost, packing.ErrLayoutTooExpensive)
	}
	return nil
}

// ParseBlocks parses a comma-separated list of WxH items, e.g. "30x40,20x50".
// It validates that every side is a positive integer.
func ParseBlocks(raw string) ([]packing.Size, error) {
	parts := strings.Split(raw, ",")
	blocks := make([]packing.Size, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, h, ok := strings.Cut(strings.ToLower(part), "x")
		if !ok {
			return nil, fmt.Errorf("invalid block %q, expected WxH", part)
		}
		width, err := strconv.Atoi(strings.TrimSpace(w))
		if err != nil {
			return nil, fmt.Errorf("invalid width in %q", part)
		}
		height, err := strconv.Atoi(strings.TrimSpace(h))
		if err != nil {
			return nil, fmt.Errorf("invalid height in %q", part)
		}
		size := packing.Size{Width: width, Height: height}
		if err := size.Validate(); err != nil {
			return nil, err
		}
		blocks = append(blocks, size)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no blocks provided")
	}
	return blocks, nil
}
