package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "BACKEND_API_URL", "BACKEND_TIMEOUT", "REDIS_URL", "SESSION_TTL", "NATS_URL", "PREVIEW_LIMIT", "MAX_UPLOAD_MB", "CORS_ORIGINS", "TEMPLATE_HEADER_COLOR", "TEMPLATE_COLUMN_WIDTH"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8095", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "http://localhost:8087", cfg.BackendURL)
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, 100, cfg.PreviewLimit)
	assert.Equal(t, 1000, cfg.TemplateValidationRows)
	assert.Empty(t, cfg.TemplateHeaderColor)
	assert.Equal(t, 18, cfg.TemplateColumnWidth)
	assert.Equal(t, 10, cfg.MaxUploadMB)
	assert.Equal(t, 200, cfg.ExportPageSize)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("BACKEND_TIMEOUT", "5s")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("PREVIEW_LIMIT", "50")
	t.Setenv("CORS_ORIGINS", "https://admin.example.com, https://*.example.com,")
	t.Setenv("TEMPLATE_HEADER_COLOR", "1F4E79")
	t.Setenv("TEMPLATE_COLUMN_WIDTH", "24")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 5*time.Second, cfg.BackendTimeout)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 50, cfg.PreviewLimit)
	assert.Equal(t, []string{"https://admin.example.com", "https://*.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "1F4E79", cfg.TemplateHeaderColor)
	assert.Equal(t, 24, cfg.TemplateColumnWidth)
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("BACKEND_TIMEOUT", "soon")
	t.Setenv("PREVIEW_LIMIT", "-3")
	t.Setenv("MAX_UPLOAD_MB", "lots")

	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 100, cfg.PreviewLimit)
	assert.Equal(t, 10, cfg.MaxUploadMB)
}
