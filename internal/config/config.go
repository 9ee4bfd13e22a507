// Package config loads service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the digest service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	SES      SESConfig      `yaml:"ses"`
	Content  ContentConfig  `yaml:"content"`
	Delivery DeliveryConfig `yaml:"delivery"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds settings for the delivery run lock. Redis is
// optional; with no address configured the worker runs unfenced.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SESConfig holds AWS SES credentials. With empty credentials the
// service falls back to a log-only mailer for local development.
type SESConfig struct {
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	Region         string `yaml:"region"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ContentConfig holds photo and fun-fact sources.
type ContentConfig struct {
	PhotoAPIURL     string `yaml:"photo_api_url"`
	PhotoAPIKey     string `yaml:"photo_api_key"`
	WeeklyFactsPath string `yaml:"weekly_facts_path"`
	FactsPath       string `yaml:"facts_path"`
	FactFeedURL     string `yaml:"fact_feed_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// DeliveryConfig holds digest composition and dispatch settings.
type DeliveryConfig struct {
	Hostname           string `yaml:"hostname"`
	FromName           string `yaml:"from_name"`
	FromEmail          string `yaml:"from_email"`
	AnchorHour         int    `yaml:"anchor_hour"`
	SendTimeoutSeconds int    `yaml:"send_timeout_seconds"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-west-2"
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 30
	}
	if cfg.Content.TimeoutSeconds == 0 {
		cfg.Content.TimeoutSeconds = 20
	}
	if cfg.Delivery.Hostname == "" {
		cfg.Delivery.Hostname = "localhost:8080"
	}
	if cfg.Delivery.FromName == "" {
		cfg.Delivery.FromName = "The Daily Hi"
	}
	if cfg.Delivery.FromEmail == "" {
		cfg.Delivery.FromEmail = "hi@dailyhi.com"
	}
	if cfg.Delivery.AnchorHour == 0 {
		cfg.Delivery.AnchorHour = 6
	}
	if cfg.Delivery.SendTimeoutSeconds == 0 {
		cfg.Delivery.SendTimeoutSeconds = 15
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in
// .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("PHOTO_API_KEY"); v != "" {
		cfg.Content.PhotoAPIKey = v
	}
	if v := os.Getenv("HOSTNAME_OVERRIDE"); v != "" {
		cfg.Delivery.Hostname = v
	}

	return cfg, nil
}
