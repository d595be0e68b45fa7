// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
//
// An optional YAML file named by READLOG_CONFIG supplies values using the same
// keys as the environment. Precedence is defaults < file < environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable pointing at the optional YAML file.
const FileEnv = "READLOG_CONFIG"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible report archive; archiving is off when unset.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	// Lifetime of the download link returned for an archived report.
	S3PresignTTL time.Duration

	// Reporting and browsing
	ReportCacheTTL      time.Duration
	PageSize            int
	MonthlyGoal         int
	GenreCacheSize      int
	GenreCacheTTL       time.Duration
	ExportRatePerMinute int

	// TrueType files for tabular reports. Empty uses the bundled DejaVu
	// fonts; set them to a face such as NanumGothic for Hangul glyphs.
	ReportFont     string
	ReportFontBold string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	src, err := newSource(os.Getenv(FileEnv))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Host: src.get("APP_HOST", "0.0.0.0"),
		Port: src.get("APP_PORT", "8080"),
		Env:  src.get("APP_ENV", "development"),

		DBHost:     src.get("POSTGRES_HOST", "localhost"),
		DBPort:     src.get("POSTGRES_PORT", "5432"),
		DBUser:     src.get("POSTGRES_USER", "readlog"),
		DBPassword: src.get("POSTGRES_PASSWORD", "changeme"),
		DBName:     src.get("POSTGRES_DB", "readlog"),

		ValkeyHost:     src.get("VALKEY_HOST", "localhost"),
		ValkeyPort:     src.get("VALKEY_PORT", "6379"),
		ValkeyPassword: src.get("VALKEY_PASSWORD", ""),

		S3Endpoint:  src.get("S3_ENDPOINT", ""),
		S3Region:    src.get("S3_REGION", "us-east-1"),
		S3AccessKey: src.get("S3_ACCESS_KEY", ""),
		S3SecretKey: src.get("S3_SECRET_KEY", ""),
		S3Bucket:    src.get("S3_BUCKET", "readlog-reports"),

		ReportFont:     src.get("REPORT_FONT", ""),
		ReportFontBold: src.get("REPORT_FONT_BOLD", ""),
	}

	if cfg.ReportCacheTTL, err = src.duration("REPORT_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.S3PresignTTL, err = src.duration("S3_PRESIGN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.GenreCacheTTL, err = src.duration("GENRE_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PageSize, err = src.positive("PAGE_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.MonthlyGoal, err = src.positive("MONTHLY_GOAL", 10); err != nil {
		return nil, err
	}
	if cfg.GenreCacheSize, err = src.positive("GENRE_CACHE_SIZE", 64); err != nil {
		return nil, err
	}
	if cfg.ExportRatePerMinute, err = src.positive("EXPORT_RATE_PER_MINUTE", 30); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// source resolves a key from the environment first, then the YAML file.
type source struct {
	file map[string]string
}

func newSource(path string) (*source, error) {
	s := &source{file: map[string]string{}}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.file); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return s, nil
}

func (s *source) get(key, fallback string) string {
	if v := envOrDefault(key, ""); v != "" {
		return v
	}
	if v := s.file[key]; v != "" {
		return v
	}
	return fallback
}

func (s *source) duration(key string, fallback time.Duration) (time.Duration, error) {
	v := s.get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func (s *source) positive(key string, fallback int) (int, error) {
	v := s.get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: must be a positive integer, got %q", key, v)
	}
	return n, nil
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
