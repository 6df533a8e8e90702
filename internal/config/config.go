package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting. Precedence, lowest first: built-in
// defaults, the YAML file named by CONFIG_FILE, environment variables
// (including those loaded from .env).
type Config struct {
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	Environment string `yaml:"environment"`
	CORSOrigins string `yaml:"cors_origins"`
	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`

	Upstream struct {
		URL        string        `yaml:"url"`
		ResultPath string        `yaml:"result_path"`
		Limit      int           `yaml:"limit"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"upstream"`

	Dashboard struct {
		PageSize          int           `yaml:"page_size"`
		RefreshInterval   time.Duration `yaml:"refresh_interval"`
		TrendingThreshold int64         `yaml:"trending_threshold"`
		DetailURL         string        `yaml:"detail_url"`
	} `yaml:"dashboard"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	cfg := &Config{
		Port:        "8080",
		LogLevel:    "info",
		Environment: "development",
		CORSOrigins: "*",
	}
	cfg.Upstream.URL = "https://frontend-api-v3.pump.fun/coins/currently-live"
	cfg.Upstream.ResultPath = "data"
	cfg.Upstream.Limit = 20
	cfg.Upstream.Timeout = 15 * time.Second
	cfg.Dashboard.PageSize = 12
	cfg.Dashboard.RefreshInterval = 30 * time.Second
	cfg.Dashboard.TrendingThreshold = 100
	cfg.Dashboard.DetailURL = "https://pump.fun/coin/"
	return cfg
}

// Load builds the configuration from defaults, CONFIG_FILE and the
// environment. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Upstream.URL == "":
		return errors.New("config: UPSTREAM_URL is required")
	case c.Upstream.Limit <= 0:
		return errors.New("config: UPSTREAM_LIMIT must be positive")
	case c.Dashboard.PageSize <= 0:
		return errors.New("config: PAGE_SIZE must be positive")
	case c.Dashboard.RefreshInterval <= 0:
		return errors.New("config: REFRESH_INTERVAL must be positive")
	case c.Dashboard.TrendingThreshold < 0:
		return errors.New("config: TRENDING_THRESHOLD must not be negative")
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.CORSOrigins = getEnv("CORS_ORIGINS", c.CORSOrigins)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.Upstream.URL = getEnv("UPSTREAM_URL", c.Upstream.URL)
	c.Upstream.ResultPath = getEnv("UPSTREAM_RESULT_PATH", c.Upstream.ResultPath)
	c.Dashboard.DetailURL = getEnv("STREAM_DETAIL_URL", c.Dashboard.DetailURL)

	var err error
	if c.Upstream.Limit, err = getEnvInt("UPSTREAM_LIMIT", c.Upstream.Limit); err != nil {
		return err
	}
	if c.Upstream.Timeout, err = getEnvDuration("UPSTREAM_TIMEOUT", c.Upstream.Timeout); err != nil {
		return err
	}
	if c.Dashboard.PageSize, err = getEnvInt("PAGE_SIZE", c.Dashboard.PageSize); err != nil {
		return err
	}
	if c.Dashboard.RefreshInterval, err = getEnvDuration("REFRESH_INTERVAL", c.Dashboard.RefreshInterval); err != nil {
		return err
	}
	threshold, err := getEnvInt("TRENDING_THRESHOLD", int(c.Dashboard.TrendingThreshold))
	if err != nil {
		return err
	}
	c.Dashboard.TrendingThreshold = int64(threshold)
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
