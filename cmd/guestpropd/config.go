package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jathurchan/guestprop/hgcm"
	"github.com/jathurchan/guestprop/property"
)

// Config is the top-level configuration of guestpropd.
type Config struct {
	// LogLevel is one of debug, info, warn, error. Overridden by --log-level.
	LogLevel string `yaml:"log_level"`

	Limits LimitsConfig `yaml:"limits"`

	// ReservedPrefixes replaces the default host-only namespaces when set.
	// An explicit empty list disables namespace protection.
	ReservedPrefixes *[]string `yaml:"reserved_prefixes"`

	Product ProductConfig `yaml:"product"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// MaxClients caps connected guest clients; zero means unlimited.
	MaxClients int `yaml:"max_clients"`

	// GlobalFlags is applied before the console starts, e.g. "RDONLYGUEST".
	GlobalFlags string `yaml:"global_flags"`

	// Properties are bulk loaded at startup without notifications.
	Properties []PropertyConfig `yaml:"properties"`
}

// LimitsConfig mirrors the service limits. Zero keeps the default.
type LimitsConfig struct {
	MaxProperties       int `yaml:"max_properties"`
	MaxNotifications    int `yaml:"max_notifications"`
	MaxWaitersPerClient int `yaml:"max_waiters_per_client"`
	MaxRelayBacklog     int `yaml:"max_relay_backlog"`
}

// ProductConfig is published under the host info namespace on power-on.
type ProductConfig struct {
	Version    string `yaml:"version"`
	VersionExt string `yaml:"version_ext"`
	Revision   string `yaml:"revision"`
}

// RateLimitConfig configures the guest call limiter.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Limit   int           `yaml:"limit"`
	Burst   int           `yaml:"burst"`
	Window  time.Duration `yaml:"window"`
}

// PropertyConfig is one initial property.
type PropertyConfig struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
	Flags string `yaml:"flags"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "info",
		MaxClients: hgcm.DefaultMaxClients,
		RateLimit: RateLimitConfig{
			Limit:  hgcm.DefaultRateLimit,
			Burst:  hgcm.DefaultRateLimitBurst,
			Window: hgcm.DefaultRateLimitWindow,
		},
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the values the service and dispatcher cannot default.
func (c *Config) Validate() error {
	if c.MaxClients < 0 {
		return fmt.Errorf("max_clients cannot be negative: %d", c.MaxClients)
	}
	if c.Limits.MaxRelayBacklog < 0 {
		return fmt.Errorf("limits.max_relay_backlog cannot be negative: %d", c.Limits.MaxRelayBacklog)
	}
	if _, err := property.ParseFlags(c.GlobalFlags); err != nil {
		return fmt.Errorf("global_flags: %w", err)
	}
	for i, p := range c.Properties {
		if p.Name == "" {
			return fmt.Errorf("properties[%d]: name is required", i)
		}
		if _, err := property.ParseFlags(p.Flags); err != nil {
			return fmt.Errorf("properties[%d] (%s): %w", i, p.Name, err)
		}
	}
	return nil
}

// serviceOptions translates the file into property service options.
func (c *Config) serviceOptions() []property.ServiceOption {
	opts := []property.ServiceOption{
		property.WithMaxProperties(c.Limits.MaxProperties),
		property.WithMaxNotifications(c.Limits.MaxNotifications),
		property.WithMaxWaitersPerClient(c.Limits.MaxWaitersPerClient),
		property.WithMaxRelayBacklog(c.Limits.MaxRelayBacklog),
	}
	if c.ReservedPrefixes != nil {
		opts = append(opts, property.WithReservedPrefixes(*c.ReservedPrefixes))
	}
	if c.Product != (ProductConfig{}) {
		opts = append(opts, property.WithProductInfo(property.ProductInfo{
			Version:    c.Product.Version,
			VersionExt: c.Product.VersionExt,
			Revision:   c.Product.Revision,
		}))
	}
	return opts
}

// initialProperties returns the configured properties in host bulk-load form.
func (c *Config) initialProperties() []property.Property {
	props := make([]property.Property, 0, len(c.Properties))
	for _, p := range c.Properties {
		flags, _ := property.ParseFlags(p.Flags)
		props = append(props, property.Property{Name: p.Name, Value: p.Value, Flags: flags})
	}
	return props
}
