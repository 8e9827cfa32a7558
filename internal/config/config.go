package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // timezone must resolve on hosts without a zoneinfo database

	"github.com/awaistahir/eterna/internal/engine"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI and daemon read at startup
type Config struct {
	DBPath   string        `mapstructure:"db_path" yaml:"db_path"`
	Timezone string        `mapstructure:"timezone" yaml:"timezone"`
	Language string        `mapstructure:"language" yaml:"language"`
	Log      LogConfig     `mapstructure:"log" yaml:"log"`
	Server   ServerConfig  `mapstructure:"server" yaml:"server"`
	Rules    RulesConfig   `mapstructure:"rules" yaml:"rules"`
	Pricing  PricingConfig `mapstructure:"pricing" yaml:"pricing"`
	Source   SourceConfig  `mapstructure:"source" yaml:"source"`
	MQTT     MQTTConfig    `mapstructure:"mqtt" yaml:"mqtt"`
	Octopus  OctopusConfig `mapstructure:"octopus" yaml:"octopus"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"` // 0 disables the publish loop
}

// RulesConfig mirrors engine.Rules with YAML-friendly keys
type RulesConfig struct {
	ACHighKWh        float64 `mapstructure:"ac_high_kwh" yaml:"ac_high_kwh"`
	SetPointCeilingC int     `mapstructure:"set_point_ceiling_c" yaml:"set_point_ceiling_c"`
	ApplianceHighKWh float64 `mapstructure:"appliance_high_kwh" yaml:"appliance_high_kwh"`
	LightsHighKWh    float64 `mapstructure:"lights_high_kwh" yaml:"lights_high_kwh"`
	DelayStartHour   int     `mapstructure:"delay_start_hour" yaml:"delay_start_hour"`
	DelayEndHour     int     `mapstructure:"delay_end_hour" yaml:"delay_end_hour"`
	MinMessages      int     `mapstructure:"min_messages" yaml:"min_messages"`
}

// PricingConfig is the tariff used until one is saved in the store
type PricingConfig struct {
	PeakStartHour int     `mapstructure:"peak_start_hour" yaml:"peak_start_hour"`
	PeakEndHour   int     `mapstructure:"peak_end_hour" yaml:"peak_end_hour"`
	PeakRate      float64 `mapstructure:"peak_rate" yaml:"peak_rate"`
	OffPeakRate   float64 `mapstructure:"off_peak_rate" yaml:"off_peak_rate"`
	FlatRate      float64 `mapstructure:"flat_rate" yaml:"flat_rate"`
	Currency      string  `mapstructure:"currency" yaml:"currency"`
	TimeOfUse     bool    `mapstructure:"time_of_use" yaml:"time_of_use"` // price cost at the current hour's rate
}

type SourceConfig struct {
	Kind string `mapstructure:"kind" yaml:"kind"` // mock or profile
	Seed uint64 `mapstructure:"seed" yaml:"seed"`
}

// MQTTConfig configures publishing to a Home Assistant broker
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Broker      string `mapstructure:"broker" yaml:"broker"` // host:port
	Username    string `mapstructure:"username" yaml:"username,omitempty"`
	Password    string `mapstructure:"password" yaml:"password,omitempty"`
	ClientID    string `mapstructure:"client_id" yaml:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix" yaml:"topic_prefix"`
}

type OctopusConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Product string `mapstructure:"product" yaml:"product"`
	Region  string `mapstructure:"region" yaml:"region"` // A-P
}

// DefaultDir is where config and database live unless overridden
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".eterna"
	}
	return filepath.Join(home, ".eterna")
}

func setDefaults(v *viper.Viper) {
	rules := engine.DefaultRules()
	pricing := engine.DefaultPricing()

	v.SetDefault("db_path", filepath.Join(DefaultDir(), "eterna.db"))
	v.SetDefault("timezone", "Asia/Dubai")
	v.SetDefault("language", "en")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.refresh_interval", "0s")
	v.SetDefault("rules.ac_high_kwh", rules.ACHighKWh)
	v.SetDefault("rules.set_point_ceiling_c", rules.SetPointCeilingC)
	v.SetDefault("rules.appliance_high_kwh", rules.ApplianceHighKWh)
	v.SetDefault("rules.lights_high_kwh", rules.LightsHighKWh)
	v.SetDefault("rules.delay_start_hour", rules.DelayWindow.Start)
	v.SetDefault("rules.delay_end_hour", rules.DelayWindow.End)
	v.SetDefault("rules.min_messages", rules.MinMessages)
	v.SetDefault("pricing.peak_start_hour", pricing.PeakStartHour)
	v.SetDefault("pricing.peak_end_hour", pricing.PeakEndHour)
	v.SetDefault("pricing.peak_rate", pricing.PeakRate)
	v.SetDefault("pricing.off_peak_rate", pricing.OffPeakRate)
	v.SetDefault("pricing.flat_rate", pricing.FlatRate)
	v.SetDefault("pricing.currency", pricing.Currency)
	v.SetDefault("pricing.time_of_use", false)
	v.SetDefault("source.kind", "mock")
	v.SetDefault("source.seed", 1)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.client_id", "eterna")
	v.SetDefault("mqtt.topic_prefix", "eterna")
	v.SetDefault("octopus.base_url", "https://api.octopus.energy/v1")
	v.SetDefault("octopus.product", "AGILE-24-10-01")
	v.SetDefault("octopus.region", "C")
}

// Load reads defaults, then the config file (if any), then ETERNA_* environment variables.
// An empty path looks for config.yaml in DefaultDir; a missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(DefaultDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("ETERNA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: decoding defaults: %v", err))
	}
	return &cfg
}

// Save writes cfg as YAML, creating the directory if needed
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks the values the engine and daemon depend on
func (c *Config) Validate() error {
	if err := c.EngineRules().Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if err := c.EnginePricing().Validate(); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", engine.ErrInvalidInput, c.Timezone, err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", engine.ErrInvalidInput, c.Server.Port)
	}
	if c.Server.RefreshInterval < 0 {
		return fmt.Errorf("%w: refresh interval must not be negative", engine.ErrInvalidInput)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("%w: mqtt broker is required when mqtt is enabled", engine.ErrInvalidInput)
	}
	return nil
}

// EngineRules converts the rules section into engine thresholds
func (c *Config) EngineRules() engine.Rules {
	return engine.Rules{
		ACHighKWh:        c.Rules.ACHighKWh,
		SetPointCeilingC: c.Rules.SetPointCeilingC,
		ApplianceHighKWh: c.Rules.ApplianceHighKWh,
		LightsHighKWh:    c.Rules.LightsHighKWh,
		DelayWindow:      engine.HourWindow{Start: c.Rules.DelayStartHour, End: c.Rules.DelayEndHour},
		MinMessages:      c.Rules.MinMessages,
	}
}

// EnginePricing converts the pricing section into an engine tariff
func (c *Config) EnginePricing() engine.PricingConfig {
	return engine.PricingConfig{
		PeakStartHour: c.Pricing.PeakStartHour,
		PeakEndHour:   c.Pricing.PeakEndHour,
		PeakRate:      c.Pricing.PeakRate,
		OffPeakRate:   c.Pricing.OffPeakRate,
		FlatRate:      c.Pricing.FlatRate,
		Currency:      c.Pricing.Currency,
	}
}

// Location resolves the configured timezone used to derive the current hour
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
