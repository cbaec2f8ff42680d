// Package config handles configuration management with validation
package config

import (
	"errors"
	"fmt"
	"market_quoter/internal/core"
	"market_quoter/internal/engine"
	"market_quoter/internal/pricing"
	"market_quoter/pkg/errors"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration structure
type Config struct {
	App         AppConfig          `yaml:"app"`
	Feed        FeedConfig         `yaml:"feed"`
	Journal     JournalConfig      `yaml:"journal"`
	Telemetry   TelemetryConfig    `yaml:"telemetry"`
	Timing      TimingConfig       `yaml:"timing"`
	Instruments []InstrumentConfig `yaml:"instruments"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	// Mode selects the collaborators: "paper" runs the built-in venue with a
	// simulated market, "feed" takes live prices over the websocket feed.
	Mode     string `yaml:"mode"`
	LogLevel string `yaml:"log_level"`
}

// FeedConfig contains the websocket market-data feed settings
type FeedConfig struct {
	URL string `yaml:"url"`
}

// JournalConfig contains the order journal settings
type JournalConfig struct {
	// Path is the SQLite database file; empty disables journaling.
	Path string `yaml:"path"`
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	MetricsPort   int  `yaml:"metrics_port"`
	EnableMetrics bool `yaml:"enable_metrics"`
}

// TimingConfig contains fleet-wide timing settings, all in the units their
// names state
type TimingConfig struct {
	NoPriceBackoffSeconds int `yaml:"no_price_backoff_seconds"`
	LegSubmitGapMillis    int `yaml:"leg_submit_gap_ms"`
	StartupSettleSeconds  int `yaml:"startup_settle_seconds"`
}

// InstrumentConfig describes one quoted instrument
type InstrumentConfig struct {
	Symbol                    string  `yaml:"symbol"`
	Margin                    float64 `yaml:"margin"`
	MaxPosition               int64   `yaml:"max_position"`
	QuotingIntervalSeconds    int     `yaml:"quoting_interval_seconds"`
	TakeProfitIntervalSeconds int     `yaml:"take_profit_interval_seconds"`
	PricePolicy               string  `yaml:"price_policy"`
	OrderType                 string  `yaml:"order_type"`

	// BasePrice seeds the simulated market in paper mode.
	BasePrice float64 `yaml:"base_price"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// Unwrap makes every validation failure match apperrors.ErrInvalidConfig.
func (e ValidationError) Unwrap() error {
	return apperrors.ErrInvalidConfig
}

// Defaults applied before validation.
const (
	defaultQuotingIntervalSeconds    = 30
	defaultTakeProfitIntervalSeconds = 10
	defaultNoPriceBackoffSeconds     = 20
	defaultLegSubmitGapMillis        = 1000
	defaultMetricsPort               = 9090
)

// LoadConfig loads configuration from a YAML file with environment variable expansion
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.Mode == "" {
		c.App.Mode = "paper"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "INFO"
	}
	if c.Timing.NoPriceBackoffSeconds == 0 {
		c.Timing.NoPriceBackoffSeconds = defaultNoPriceBackoffSeconds
	}
	if c.Timing.LegSubmitGapMillis == 0 {
		c.Timing.LegSubmitGapMillis = defaultLegSubmitGapMillis
	}
	if c.Telemetry.MetricsPort == 0 {
		c.Telemetry.MetricsPort = defaultMetricsPort
	}
	for i := range c.Instruments {
		inst := &c.Instruments[i]
		if inst.QuotingIntervalSeconds == 0 {
			inst.QuotingIntervalSeconds = defaultQuotingIntervalSeconds
		}
		if inst.TakeProfitIntervalSeconds == 0 {
			inst.TakeProfitIntervalSeconds = defaultTakeProfitIntervalSeconds
		}
		if inst.PricePolicy == "" {
			inst.PricePolicy = string(pricing.PolicyMid)
		}
		if inst.OrderType == "" {
			inst.OrderType = string(core.OrderTypeDay)
		}
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	var errs []error

	if err := c.validateApp(); err != nil {
		errs = append(errs, err)
	}
	if err := c.validateInstruments(); err != nil {
		errs = append(errs, err)
	}
	if err := c.validateTiming(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func (c *Config) validateApp() error {
	switch c.App.Mode {
	case "paper":
	case "feed":
		if c.Feed.URL == "" {
			return ValidationError{
				Field:   "feed.url",
				Message: "feed URL is required in feed mode",
			}
		}
	default:
		return ValidationError{
			Field:   "app.mode",
			Value:   c.App.Mode,
			Message: "must be one of: paper, feed",
		}
	}

	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
	if !contains(validLevels, strings.ToUpper(c.App.LogLevel)) {
		return ValidationError{
			Field:   "app.log_level",
			Value:   c.App.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLevels, ", ")),
		}
	}
	return nil
}

func (c *Config) validateInstruments() error {
	if len(c.Instruments) == 0 {
		return ValidationError{
			Field:   "instruments",
			Message: "at least one instrument must be configured",
		}
	}

	seen := make(map[string]bool)
	for i, inst := range c.Instruments {
		field := func(name string) string {
			return fmt.Sprintf("instruments[%d].%s", i, name)
		}

		if inst.Symbol == "" {
			return ValidationError{
				Field:   field("symbol"),
				Message: "symbol is required",
			}
		}
		if seen[inst.Symbol] {
			return ValidationError{
				Field:   field("symbol"),
				Value:   inst.Symbol,
				Message: "duplicate symbol",
			}
		}
		seen[inst.Symbol] = true

		if inst.Margin < 0 {
			return ValidationError{
				Field:   field("margin"),
				Value:   inst.Margin,
				Message: "margin must not be negative",
			}
		}
		if inst.MaxPosition <= 0 {
			return ValidationError{
				Field:   field("max_position"),
				Value:   inst.MaxPosition,
				Message: "max position must be positive",
			}
		}
		if inst.QuotingIntervalSeconds <= 0 {
			return ValidationError{
				Field:   field("quoting_interval_seconds"),
				Value:   inst.QuotingIntervalSeconds,
				Message: "quoting interval must be positive",
			}
		}
		if inst.TakeProfitIntervalSeconds <= 0 {
			return ValidationError{
				Field:   field("take_profit_interval_seconds"),
				Value:   inst.TakeProfitIntervalSeconds,
				Message: "take-profit interval must be positive",
			}
		}
		if _, err := pricing.ParsePolicy(inst.PricePolicy); err != nil {
			return ValidationError{
				Field:   field("price_policy"),
				Value:   inst.PricePolicy,
				Message: "must be one of: mid, weighted, last_trade, bid_ask",
			}
		}
		switch core.OrderType(inst.OrderType) {
		case core.OrderTypeDay, core.OrderTypeIOC:
		default:
			return ValidationError{
				Field:   field("order_type"),
				Value:   inst.OrderType,
				Message: "must be one of: DAY, IOC",
			}
		}
		if c.App.Mode == "paper" && inst.BasePrice <= 0 {
			return ValidationError{
				Field:   field("base_price"),
				Value:   inst.BasePrice,
				Message: "base price must be positive in paper mode",
			}
		}
	}

	return nil
}

func (c *Config) validateTiming() error {
	if c.Timing.NoPriceBackoffSeconds < 0 {
		return ValidationError{
			Field:   "timing.no_price_backoff_seconds",
			Value:   c.Timing.NoPriceBackoffSeconds,
			Message: "must not be negative",
		}
	}
	if c.Timing.LegSubmitGapMillis < 0 {
		return ValidationError{
			Field:   "timing.leg_submit_gap_ms",
			Value:   c.Timing.LegSubmitGapMillis,
			Message: "must not be negative",
		}
	}
	if c.Timing.StartupSettleSeconds < 0 {
		return ValidationError{
			Field:   "timing.startup_settle_seconds",
			Value:   c.Timing.StartupSettleSeconds,
			Message: "must not be negative",
		}
	}
	return nil
}

// EngineConfigs converts the instrument records into engine configurations,
// folding in the fleet-wide timing section. Call only after Validate.
func (c *Config) EngineConfigs() []engine.Config {
	out := make([]engine.Config, 0, len(c.Instruments))
	for _, inst := range c.Instruments {
		policy, _ := pricing.ParsePolicy(inst.PricePolicy)
		out = append(out, engine.Config{
			Symbol:             inst.Symbol,
			Margin:             decimal.NewFromFloat(inst.Margin),
			MaxPosition:        inst.MaxPosition,
			Policy:             policy,
			OrderType:          core.OrderType(inst.OrderType),
			QuotingInterval:    time.Duration(inst.QuotingIntervalSeconds) * time.Second,
			TakeProfitInterval: time.Duration(inst.TakeProfitIntervalSeconds) * time.Second,
			NoPriceBackoff:     time.Duration(c.Timing.NoPriceBackoffSeconds) * time.Second,
			LegSubmitGap:       time.Duration(c.Timing.LegSubmitGapMillis) * time.Millisecond,
		})
	}
	return out
}

// StartupSettle returns the fleet settle delay
func (c *Config) StartupSettle() time.Duration {
	return time.Duration(c.Timing.StartupSettleSeconds) * time.Second
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// DefaultConfig returns a default configuration for testing
func DefaultConfig() *Config {
	cfg := &Config{
		App: AppConfig{
			Mode:     "paper",
			LogLevel: "INFO",
		},
		Telemetry: TelemetryConfig{
			MetricsPort:   defaultMetricsPort,
			EnableMetrics: true,
		},
		Instruments: []InstrumentConfig{
			{
				Symbol:      "TESTUSD",
				Margin:      0.002,
				MaxPosition: 10,
				PricePolicy: string(pricing.PolicyMid),
				OrderType:   string(core.OrderTypeDay),
				BasePrice:   200,
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}
