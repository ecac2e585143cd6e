package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MEDIA_BACKEND", "")
	t.Setenv("MEDIA_VIDEO_MAX_BYTES", "")
	t.Setenv("DASHBOARD_CACHE_TTL", "")
	t.Setenv("FACILITY_TIMEZONE", "")

	cfg := Load()

	assert.Equal(t, MediaBackendDisk, cfg.MediaBackend)
	assert.Equal(t, int64(200<<20), cfg.MediaVideoMaxBytes)
	assert.Equal(t, 30*time.Second, cfg.DashboardCacheTTL)
	assert.Equal(t, "/uploads", cfg.UploadURLPrefix)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MEDIA_BACKEND", "minio")
	t.Setenv("MEDIA_IMAGE_MAX_BYTES", "1048576")
	t.Setenv("SEARCH_FULL_TEXT", "false")
	t.Setenv("DASHBOARD_CACHE_TTL", "2m")
	t.Setenv("FACILITY_TIMEZONE", "Asia/Kolkata")

	cfg := Load()

	assert.Equal(t, MediaBackendMinIO, cfg.MediaBackend)
	assert.Equal(t, int64(1<<20), cfg.MediaImageMaxBytes)
	assert.False(t, cfg.SearchFullText)
	assert.Equal(t, 2*time.Minute, cfg.DashboardCacheTTL)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MEDIA_VIDEO_MAX_BYTES", "lots")
	t.Setenv("MINIO_USE_SSL", "maybe")
	t.Setenv("DASHBOARD_CACHE_TTL", "soon")

	cfg := Load()

	assert.Equal(t, int64(200<<20), cfg.MediaVideoMaxBytes)
	assert.False(t, cfg.MinIOUseSSL)
	assert.Equal(t, 30*time.Second, cfg.DashboardCacheTTL)
}

func TestLocation_Unknown(t *testing.T) {
	cfg := &Config{FacilityTimezone: "Mars/Olympus_Mons"}
	_, err := cfg.Location()
	assert.Error(t, err)
}
