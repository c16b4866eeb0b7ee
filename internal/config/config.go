// Package config loads the service configuration from BBT_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Addr        string     `mapstructure:"addr" validate:"required"`
	WebDir      string     `mapstructure:"web_dir" validate:"required"`
	Store       string     `mapstructure:"store" validate:"required,oneof=sqlite postgres memory"`
	SQLitePath  string     `mapstructure:"sqlite_path" validate:"required_if=Store sqlite"`
	DatabaseURL string     `mapstructure:"database_url" validate:"required_if=Store postgres"`
	Timezone    string     `mapstructure:"timezone" validate:"required"`
	LogLevel    string     `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ForwardAuth trusts the Remote-User header. Enable only behind a proxy
	// that sets and strips it.
	ForwardAuth bool       `mapstructure:"forward_auth"`
	OIDC        OIDCConfig `mapstructure:"oidc"`
}

// OIDCConfig enables SSO when Issuer is set.
type OIDCConfig struct {
	Issuer       string `mapstructure:"issuer" validate:"omitempty,url"`
	ClientID     string `mapstructure:"client_id" validate:"required_with=Issuer"`
	ClientSecret string `mapstructure:"client_secret" validate:"required_with=Issuer"`
	RedirectURL  string `mapstructure:"redirect_url" validate:"required_with=Issuer"`
}

// Enabled reports whether SSO is configured.
func (c OIDCConfig) Enabled() bool {
	return c.Issuer != ""
}

// Location resolves Timezone; "Local" selects the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads configuration. Environment variables (BBT_ADDR, BBT_OIDC_ISSUER,
// ...) take precedence over the file named by configFile, which may be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("web_dir", "web")
	v.SetDefault("store", "sqlite")
	v.SetDefault("sqlite_path", "data/bbt.db")
	v.SetDefault("database_url", "")
	v.SetDefault("timezone", "Local")
	v.SetDefault("log_level", "info")
	v.SetDefault("forward_auth", false)
	v.SetDefault("oidc.issuer", "")
	v.SetDefault("oidc.client_id", "")
	v.SetDefault("oidc.client_secret", "")
	v.SetDefault("oidc.redirect_url", "")

	v.SetEnvPrefix("BBT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, errors.Join(fmt.Errorf("invalid timezone %q", cfg.Timezone), err)
	}
	return &cfg, nil
}
