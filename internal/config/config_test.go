package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8020, cfg.HTTPPort)
	assert.Equal(t, SessionStoreMemory, cfg.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.Len(t, cfg.Slides, 3)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.CORSAllowCredentials)
}

func TestLoad_CORSCredentials(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		origins string
		wantErr bool
	}{
		{"wildcard in production", "production", "*", true},
		{"wildcard among origins", "production", "https://shop.example.com,*", true},
		{"explicit origins in production", "production", "https://shop.example.com", false},
		{"wildcard in development", "development", "*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			t.Setenv("CORS_ALLOWED_ORIGINS", tt.origins)
			t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

			_, err := Load()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "CORS_ALLOWED_ORIGINS")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "70000")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidSessionStore(t *testing.T) {
	t.Setenv("SESSION_STORE", "postgres")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoad_InvalidShopAPIURL(t *testing.T) {
	t.Setenv("SHOP_API_URL", "not a url")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestLoad_InvalidOTELSampleRate(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATE", "2.0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
}

func TestLoad_InvalidFailureRatio(t *testing.T) {
	t.Setenv("CB_FAILURE_RATIO", "0")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "CB_FAILURE_RATIO")
}

func TestLoad_InvalidToggleRateLimit(t *testing.T) {
	t.Setenv("TOGGLE_RATE_LIMIT_BURST", "0")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "toggle rate limit")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("STOREFRONT_SLIDES", "/a.jpg,/b.jpg")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, SessionStoreRedis, cfg.SessionStore)
	assert.Equal(t, "redis.internal", cfg.RedisHost)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"/a.jpg", "/b.jpg"}, cfg.Slides)
}
