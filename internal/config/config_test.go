package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CURRENCY", "EUR")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,,")
	t.Setenv("REDIS_DB", "2")

	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "eur", cfg.Currency)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoadClientConfig(t *testing.T) {
	t.Setenv("COURIER_API_URL", "https://api.example/")
	t.Setenv("COURIER_TIMEOUT", "bogus")
	t.Setenv("COURIER_SESSION_FILE", "/tmp/s.yaml")

	cfg := LoadClientConfig()
	assert.Equal(t, "https://api.example", cfg.APIURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "/tmp/s.yaml", cfg.SessionFile)
}
