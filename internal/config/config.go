package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Minio    MinioConfig    `toml:"minio"`
	JWT      JWTConfig      `toml:"jwt"`
	Tenancy  TenancyConfig  `toml:"tenancy"`
	Payments PaymentsConfig `toml:"payments"`
	Jobs     JobsConfig     `toml:"jobs"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Port       int    `toml:"port"`
	BaseDomain string `toml:"base_domain"`
}

// DatabaseConfig contains the postgres connection settings
type DatabaseConfig struct {
	URL string `toml:"url"`
}

// RedisConfig contains cache and queue settings
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MinioConfig contains object storage settings
type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
}

// JWTConfig contains token signing settings
type JWTConfig struct {
	Secret            string `toml:"secret"`
	AccessTTLMinutes  int    `toml:"access_ttl_minutes"`
	RefreshTTLDays    int    `toml:"refresh_ttl_days"`
}

// TenancyConfig selects the isolation strategy
type TenancyConfig struct {
	// Strategy is "row" (tenant_id column scoping) or "schema"
	// (search_path per tenant). Row scoping is the default.
	Strategy string `toml:"strategy"`
	// TenantHeader is the explicit tenant selection header.
	TenantHeader string `toml:"tenant_header"`
}

// PaymentsConfig contains payment provider settings
type PaymentsConfig struct {
	APIKey        string `toml:"api_key"`
	APISecret     string `toml:"api_secret"`
	WebhookSecret string `toml:"webhook_secret"`
}

// JobsConfig contains background worker settings
type JobsConfig struct {
	Concurrency int `toml:"concurrency"`
}

// Load reads configuration from a TOML file
func Load(filename string) (*Config, error) {
	config := &Config{}
	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	config.applyDefaults()
	return config, nil
}

// Default returns a configuration with defaults applied, for use when no
// config file is present and everything comes from the environment.
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.JWT.AccessTTLMinutes == 0 {
		c.JWT.AccessTTLMinutes = 15
	}
	if c.JWT.RefreshTTLDays == 0 {
		c.JWT.RefreshTTLDays = 30
	}
	if c.Minio.Bucket == "" {
		c.Minio.Bucket = "crmhub"
	}
	if c.Tenancy.Strategy == "" {
		c.Tenancy.Strategy = "row"
	}
	if c.Tenancy.TenantHeader == "" {
		c.Tenancy.TenantHeader = "X-Tenant-ID"
	}
	if c.Jobs.Concurrency == 0 {
		c.Jobs.Concurrency = 10
	}
}
