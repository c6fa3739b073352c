// SPDX-License-Identifier: MIT

// Package config loads albumzipd configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"
)

// Store backends.
const (
	StoreBackendFS   = "fs"
	StoreBackendHTTP = "http"
)

// Lock backends.
const (
	LockBackendNone  = "none"
	LockBackendRedis = "redis"
)

// AppConfig holds the full daemon configuration.
type AppConfig struct {
	Listen  string
	DataDir string
	DBPath  string

	StoreBackend  string
	StoreBaseURL  string
	StoreToken    string
	StoreRoot     string
	PublicBaseURL string
	SigningSecret string
	AudioBucket   string
	ArchiveBucket string

	FFmpegBin        string
	BitrateKbps      int
	TranscodeTimeout time.Duration
	FetchTimeout     time.Duration

	LinkTTL            time.Duration
	Workers            int
	FailOnEmptyArchive bool

	LockBackend   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	LogLevel   string
	LogService string
	Version    string
}

// FromEnv builds an AppConfig from AZD_* environment variables with defaults.
func FromEnv(version string) AppConfig {
	dataDir := ParseString("AZD_DATA", "/var/lib/albumzipd")

	cfg := AppConfig{
		Listen:  ParseString("AZD_LISTEN", ":8080"),
		DataDir: dataDir,
		DBPath:  ParseString("AZD_DB_PATH", filepath.Join(dataDir, "albumzipd.db")),

		StoreBackend:  ParseString("AZD_STORE_BACKEND", StoreBackendFS),
		StoreBaseURL:  ParseString("AZD_STORE_BASE_URL", ""),
		StoreToken:    ParseString("AZD_STORE_TOKEN", ""),
		StoreRoot:     ParseString("AZD_STORE_ROOT", filepath.Join(dataDir, "objects")),
		PublicBaseURL: ParseString("AZD_PUBLIC_BASE_URL", "http://localhost:8080"),
		SigningSecret: ParseString("AZD_SIGNING_SECRET", ""),
		AudioBucket:   ParseString("AZD_AUDIO_BUCKET", "audio-files"),
		ArchiveBucket: ParseString("AZD_ARCHIVE_BUCKET", "archives"),

		FFmpegBin:        ParseString("AZD_FFMPEG_BIN", "ffmpeg"),
		BitrateKbps:      ParseInt("AZD_BITRATE_KBPS", 192),
		TranscodeTimeout: ParseDuration("AZD_TRANSCODE_TIMEOUT", 5*time.Minute),
		FetchTimeout:     ParseDuration("AZD_FETCH_TIMEOUT", time.Minute),

		LinkTTL:            ParseDuration("AZD_LINK_TTL", 900*time.Second),
		Workers:            ParseInt("AZD_WORKERS", 1),
		FailOnEmptyArchive: ParseBool("AZD_FAIL_ON_EMPTY", false),

		LockBackend:   ParseString("AZD_LOCK_BACKEND", LockBackendNone),
		RedisAddr:     ParseString("AZD_REDIS_ADDR", "localhost:6379"),
		RedisPassword: ParseString("AZD_REDIS_PASSWORD", ""),
		RedisDB:       ParseInt("AZD_REDIS_DB", 0),
		LockTTL:       ParseDuration("AZD_LOCK_TTL", 2*time.Minute),

		RateLimitRPS:   ParseInt("AZD_RATE_LIMIT_RPS", 5),
		RateLimitBurst: ParseInt("AZD_RATE_LIMIT_BURST", 10),

		LogLevel:   ParseString("AZD_LOG_LEVEL", "info"),
		LogService: ParseString("AZD_LOG_SERVICE", "albumzipd"),
		Version:    version,
	}
	return cfg
}

// Validate checks the configuration for fatal inconsistencies. It is called
// once at startup so a misconfigured daemon fails fast instead of at the
// first request.
func (c AppConfig) Validate() error {
	if c.SigningSecret == "" {
		return fmt.Errorf("AZD_SIGNING_SECRET is required")
	}
	if c.BitrateKbps <= 0 {
		return fmt.Errorf("bitrate must be positive, got %d", c.BitrateKbps)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.LinkTTL <= 0 {
		return fmt.Errorf("link TTL must be positive, got %s", c.LinkTTL)
	}

	switch c.StoreBackend {
	case StoreBackendFS:
		if c.StoreRoot == "" {
			return fmt.Errorf("store root is required for the fs backend")
		}
	case StoreBackendHTTP:
		if err := validateBaseURL(c.StoreBaseURL); err != nil {
			return fmt.Errorf("AZD_STORE_BASE_URL: %w", err)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}

	switch c.LockBackend {
	case LockBackendNone:
	case LockBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("AZD_REDIS_ADDR is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("unknown lock backend %q", c.LockBackend)
	}

	if err := validateBaseURL(c.PublicBaseURL); err != nil {
		return fmt.Errorf("AZD_PUBLIC_BASE_URL: %w", err)
	}
	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("base URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported base URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base URL %q is missing host", raw)
	}
	return nil
}
