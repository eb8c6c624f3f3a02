// Package config provides configuration management for the valuation and alert engine.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Engine defaults
const (
	defaultTimezone        = "America/New_York"
	defaultMarketClose     = "16:00"
	defaultRiskFreeRate    = 0.045
	defaultMultiplier      = 100.0
	defaultSamples         = 400
	defaultFullPadding     = 2.0
	defaultViewportPadding = 0.5
	defaultMinSpan         = 10.0
	defaultPriceTolerance  = 1.0
	defaultPriceBand       = 5.0
	defaultDebitTolerance  = 0.05
	defaultDebitBand       = 0.2
	defaultRearmRatio      = 0.5
	defaultZoneThreshold   = 0.5
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
)

// Config represents the complete engine configuration.
type Config struct {
	Pricing   PricingConfig   `yaml:"pricing"`
	Valuation ValuationConfig `yaml:"valuation"`
	Surface   SurfaceConfig   `yaml:"surface"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Zone      ZoneConfig      `yaml:"zone"`
	Notify    NotifyConfig    `yaml:"notify"`
	Log       LogConfig       `yaml:"log"`
}

// PricingConfig defines the model inputs and the daily expiration anchor.
type PricingConfig struct {
	RiskFreeRate float64 `yaml:"risk_free_rate"`
	Timezone     string  `yaml:"timezone"`     // e.g., "America/New_York"
	MarketClose  string  `yaml:"market_close"` // "HH:MM"
}

// ValuationConfig defines contract sizing.
type ValuationConfig struct {
	Multiplier float64 `yaml:"multiplier"`
}

// SurfaceConfig defines P&L surface sampling.
type SurfaceConfig struct {
	Samples int `yaml:"samples"`
	// FullPadding and ViewportPadding are multiples of the strike span added on each side.
	FullPadding     float64 `yaml:"full_padding"`
	ViewportPadding float64 `yaml:"viewport_padding"`
	MinSpan         float64 `yaml:"min_span"`
	Workers         int     `yaml:"workers"`
}

// AlertsConfig holds the per-type "at" tolerances and other-side bands.
// Price and debit tolerances are kept separate on purpose.
type AlertsConfig struct {
	PriceTolerance     float64 `yaml:"price_tolerance"`
	PriceBand          float64 `yaml:"price_band"`
	DebitTolerance     float64 `yaml:"debit_tolerance"`
	DebitBand          float64 `yaml:"debit_band"`
	ProfitRearmRatio   float64 `yaml:"profit_rearm_ratio"`
	TrailingRearmRatio float64 `yaml:"trailing_rearm_ratio"`
}

// ZoneConfig defines the dynamic zone sizing model.
type ZoneConfig struct {
	DefaultThreshold  float64      `yaml:"default_threshold"`
	BaseHalfWidth     float64      `yaml:"base_half_width"`
	MinHalfWidth      float64      `yaml:"min_half_width"`
	TimeScale         float64      `yaml:"time_scale"`
	TimeFactorMin     float64      `yaml:"time_factor_min"`
	TimeFactorMax     float64      `yaml:"time_factor_max"`
	ProfitBufferScale float64      `yaml:"profit_buffer_scale"`
	Gamma             GammaFactors `yaml:"gamma"`
}

// GammaFactors scale the zone by structure
type GammaFactors struct {
	Single    float64 `yaml:"single"`
	Vertical  float64 `yaml:"vertical"`
	Butterfly float64 `yaml:"butterfly"`
}

// NotifyConfig defines the circuit breaker around the notification sink.
type NotifyConfig struct {
	Timeout      string  `yaml:"timeout"`       // per-notification deadline
	BreakerOpen  string  `yaml:"breaker_open"`  // how long the breaker stays open
	MinRequests  uint32  `yaml:"min_requests"`  // requests before the breaker may trip
	FailureRatio float64 `yaml:"failure_ratio"` // trip threshold
}

// LogConfig defines logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.normalize()
	return c
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes, expanding environment variables first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.Pricing.RiskFreeRate < 0 || c.Pricing.RiskFreeRate > 1 {
		return fmt.Errorf("pricing.risk_free_rate must be between 0 and 1")
	}
	if _, err := time.Parse("15:04", c.Pricing.MarketClose); err != nil {
		return fmt.Errorf("pricing.market_close invalid: %w", err)
	}

	if c.Valuation.Multiplier <= 0 {
		return fmt.Errorf("valuation.multiplier must be > 0")
	}

	if c.Surface.Samples < 2 {
		return fmt.Errorf("surface.samples must be >= 2")
	}
	if c.Surface.ViewportPadding < 0 || c.Surface.FullPadding < c.Surface.ViewportPadding {
		return fmt.Errorf("surface.full_padding (%.2f) must be >= surface.viewport_padding (%.2f) >= 0",
			c.Surface.FullPadding, c.Surface.ViewportPadding)
	}
	if c.Surface.MinSpan <= 0 {
		return fmt.Errorf("surface.min_span must be > 0")
	}

	if c.Alerts.PriceTolerance <= 0 || c.Alerts.DebitTolerance <= 0 {
		return fmt.Errorf("alerts tolerances must be > 0")
	}
	if c.Alerts.PriceBand < c.Alerts.PriceTolerance {
		return fmt.Errorf("alerts.price_band (%.2f) must be >= alerts.price_tolerance (%.2f)",
			c.Alerts.PriceBand, c.Alerts.PriceTolerance)
	}
	if c.Alerts.DebitBand < c.Alerts.DebitTolerance {
		return fmt.Errorf("alerts.debit_band (%.2f) must be >= alerts.debit_tolerance (%.2f)",
			c.Alerts.DebitBand, c.Alerts.DebitTolerance)
	}
	if c.Alerts.ProfitRearmRatio <= 0 || c.Alerts.ProfitRearmRatio >= 1 {
		return fmt.Errorf("alerts.profit_rearm_ratio must be in (0,1)")
	}
	if c.Alerts.TrailingRearmRatio <= 0 || c.Alerts.TrailingRearmRatio >= 1 {
		return fmt.Errorf("alerts.trailing_rearm_ratio must be in (0,1)")
	}

	if c.Zone.DefaultThreshold <= 0 {
		return fmt.Errorf("zone.default_threshold must be > 0")
	}
	if c.Zone.MinHalfWidth <= 0 || c.Zone.BaseHalfWidth <= 0 {
		return fmt.Errorf("zone half widths must be > 0")
	}
	if c.Zone.TimeFactorMin <= 0 || c.Zone.TimeFactorMin > c.Zone.TimeFactorMax {
		return fmt.Errorf("zone.time_factor_min (%.2f) must be > 0 and <= zone.time_factor_max (%.2f)",
			c.Zone.TimeFactorMin, c.Zone.TimeFactorMax)
	}
	g := c.Zone.Gamma
	if g.Single <= 0 || g.Vertical <= 0 || g.Butterfly <= 0 {
		return fmt.Errorf("zone.gamma factors must be > 0")
	}

	if _, err := time.ParseDuration(c.Notify.Timeout); err != nil {
		return fmt.Errorf("notify.timeout invalid: %w", err)
	}
	if _, err := time.ParseDuration(c.Notify.BreakerOpen); err != nil {
		return fmt.Errorf("notify.breaker_open invalid: %w", err)
	}
	if c.Notify.FailureRatio <= 0 || c.Notify.FailureRatio > 1 {
		return fmt.Errorf("notify.failure_ratio must be in (0,1]")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}

	return nil
}

// GetNotifyTimeout returns the per-notification deadline
func (c *Config) GetNotifyTimeout() time.Duration {
	d, err := time.ParseDuration(c.Notify.Timeout)
	if err != nil {
		return 5 * time.Second // default
	}
	return d
}

// GetBreakerOpen returns how long the notification breaker stays open
func (c *Config) GetBreakerOpen() time.Duration {
	d, err := time.ParseDuration(c.Notify.BreakerOpen)
	if err != nil {
		return 30 * time.Second // default
	}
	return d
}

// normalize sets default values for unset fields
func (c *Config) normalize() {
	if c.Pricing.Timezone == "" {
		c.Pricing.Timezone = defaultTimezone
	}
	if c.Pricing.MarketClose == "" {
		c.Pricing.MarketClose = defaultMarketClose
	}
	if c.Pricing.RiskFreeRate == 0 {
		c.Pricing.RiskFreeRate = defaultRiskFreeRate
	}

	if c.Valuation.Multiplier == 0 {
		c.Valuation.Multiplier = defaultMultiplier
	}

	if c.Surface.Samples == 0 {
		c.Surface.Samples = defaultSamples
	}
	if c.Surface.FullPadding == 0 {
		c.Surface.FullPadding = defaultFullPadding
	}
	if c.Surface.ViewportPadding == 0 {
		c.Surface.ViewportPadding = defaultViewportPadding
	}
	if c.Surface.MinSpan == 0 {
		c.Surface.MinSpan = defaultMinSpan
	}
	if c.Surface.Workers <= 0 {
		c.Surface.Workers = 4
	}

	c.normalizeAlerts()
	c.normalizeZone()

	if c.Notify.Timeout == "" {
		c.Notify.Timeout = "5s"
	}
	if c.Notify.BreakerOpen == "" {
		c.Notify.BreakerOpen = "30s"
	}
	if c.Notify.MinRequests == 0 {
		c.Notify.MinRequests = 5
	}
	if c.Notify.FailureRatio == 0 {
		c.Notify.FailureRatio = 0.6
	}

	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
}

func (c *Config) normalizeAlerts() {
	a := &c.Alerts
	if a.PriceTolerance == 0 {
		a.PriceTolerance = defaultPriceTolerance
	}
	if a.PriceBand == 0 {
		a.PriceBand = defaultPriceBand
	}
	if a.DebitTolerance == 0 {
		a.DebitTolerance = defaultDebitTolerance
	}
	if a.DebitBand == 0 {
		a.DebitBand = defaultDebitBand
	}
	if a.ProfitRearmRatio == 0 {
		a.ProfitRearmRatio = defaultRearmRatio
	}
	if a.TrailingRearmRatio == 0 {
		a.TrailingRearmRatio = defaultRearmRatio
	}
}

func (c *Config) normalizeZone() {
	z := &c.Zone
	if z.DefaultThreshold == 0 {
		z.DefaultThreshold = defaultZoneThreshold
	}
	if z.BaseHalfWidth == 0 {
		z.BaseHalfWidth = 20
	}
	if z.MinHalfWidth == 0 {
		z.MinHalfWidth = 3
	}
	if z.TimeScale == 0 {
		z.TimeScale = 0.75
	}
	if z.TimeFactorMin == 0 {
		z.TimeFactorMin = 0.3
	}
	if z.TimeFactorMax == 0 {
		z.TimeFactorMax = 1.5
	}
	if z.ProfitBufferScale == 0 {
		z.ProfitBufferScale = 0.3
	}
	if z.Gamma.Single == 0 {
		z.Gamma.Single = 1.0
	}
	if z.Gamma.Vertical == 0 {
		z.Gamma.Vertical = 0.8
	}
	if z.Gamma.Butterfly == 0 {
		z.Gamma.Butterfly = 0.6
	}
}
