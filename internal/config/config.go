package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port        string
	Environment string
	CORSOrigins []string

	// Catalog backend
	BackendURL     string
	BackendToken   string
	BackendTimeout time.Duration

	// Sessions
	RedisURL     string
	SessionTTL   time.Duration
	PreviewLimit int

	// Events
	NATSURL string

	// Workbooks
	TemplateValidationRows int
	TemplateHeaderColor    string
	TemplateColumnWidth    int
	MaxUploadMB            int
	ExportPageSize         int
}

func Load() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8095"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: getList("CORS_ORIGINS"),

		// Catalog backend
		BackendURL:     getEnv("BACKEND_API_URL", "http://localhost:8087"),
		BackendToken:   getEnv("BACKEND_API_TOKEN", ""),
		BackendTimeout: getDuration("BACKEND_TIMEOUT", 30*time.Second),

		// Sessions - an empty REDIS_URL keeps sessions in memory
		RedisURL:     getEnv("REDIS_URL", ""),
		SessionTTL:   getDuration("SESSION_TTL", 30*time.Minute),
		PreviewLimit: getInt("PREVIEW_LIMIT", 100),

		// Events - an empty NATS_URL disables publishing
		NATSURL: getEnv("NATS_URL", ""),

		// Workbooks
		TemplateValidationRows: getInt("TEMPLATE_VALIDATION_ROWS", 1000),
		TemplateHeaderColor:    getEnv("TEMPLATE_HEADER_COLOR", ""),
		TemplateColumnWidth:    getInt("TEMPLATE_COLUMN_WIDTH", 18),
		MaxUploadMB:            getInt("MAX_UPLOAD_MB", 10),
		ExportPageSize:         getInt("EXPORT_PAGE_SIZE", 200),
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
