// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AppConfig {
	cfg := FromEnv("test")
	cfg.SigningSecret = "s3cret"
	return cfg
}

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv("v1.2.3")

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, StoreBackendFS, cfg.StoreBackend)
	assert.Equal(t, "audio-files", cfg.AudioBucket)
	assert.Equal(t, "archives", cfg.ArchiveBucket)
	assert.Equal(t, 192, cfg.BitrateKbps)
	assert.Equal(t, 900*time.Second, cfg.LinkTTL)
	assert.Equal(t, 1, cfg.Workers)
	assert.False(t, cfg.FailOnEmptyArchive)
	assert.Equal(t, LockBackendNone, cfg.LockBackend)
	assert.Equal(t, "v1.2.3", cfg.Version)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AZD_LISTEN", ":9000")
	t.Setenv("AZD_BITRATE_KBPS", "320")
	t.Setenv("AZD_LINK_TTL", "300")
	t.Setenv("AZD_TRANSCODE_TIMEOUT", "90s")
	t.Setenv("AZD_FAIL_ON_EMPTY", "true")
	t.Setenv("AZD_WORKERS", "4")

	cfg := FromEnv("test")
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, 320, cfg.BitrateKbps)
	assert.Equal(t, 300*time.Second, cfg.LinkTTL)
	assert.Equal(t, 90*time.Second, cfg.TranscodeTimeout)
	assert.True(t, cfg.FailOnEmptyArchive)
	assert.Equal(t, 4, cfg.Workers)
}

func TestFromEnvInvalidValuesFallBack(t *testing.T) {
	t.Setenv("AZD_BITRATE_KBPS", "fast")
	t.Setenv("AZD_LINK_TTL", "soon")
	t.Setenv("AZD_FAIL_ON_EMPTY", "yep")

	cfg := FromEnv("test")
	assert.Equal(t, 192, cfg.BitrateKbps)
	assert.Equal(t, 900*time.Second, cfg.LinkTTL)
	assert.False(t, cfg.FailOnEmptyArchive)
}

func TestValidateRequiresSigningSecret(t *testing.T) {
	cfg := FromEnv("test")
	cfg.SigningSecret = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AZD_SIGNING_SECRET")
}

func TestValidateStoreBackends(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cfg.StoreBackend = StoreBackendHTTP
	cfg.StoreBaseURL = ""
	require.Error(t, cfg.Validate())

	cfg.StoreBaseURL = "ftp://store"
	require.Error(t, cfg.Validate())

	cfg.StoreBaseURL = "http://store:9000"
	require.NoError(t, cfg.Validate())

	cfg.StoreBackend = "cloud"
	require.Error(t, cfg.Validate())
}

func TestValidateLockBackends(t *testing.T) {
	cfg := validConfig()
	cfg.LockBackend = LockBackendRedis
	cfg.RedisAddr = ""
	require.Error(t, cfg.Validate())

	cfg.RedisAddr = "localhost:6379"
	require.NoError(t, cfg.Validate())

	cfg.LockBackend = "zookeeper"
	require.Error(t, cfg.Validate())
}

func TestValidateBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Workers = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.BitrateKbps = -1
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.LinkTTL = 0
	require.Error(t, cfg.Validate())
}
