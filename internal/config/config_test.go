package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"PORT", "PROBE_TIMEOUT", "PROBE_RETRIES", "DB_DRIVER", "DEFAULT_TENANT", "RATE_LIMIT_RPS", "STATUS_POLL_INTERVAL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "default", cfg.DefaultTenant)
	assert.Equal(t, 12*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 1, cfg.ProbeRetries)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 15*time.Second, cfg.StatusPollInterval)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PROVIDER_BASE_URL", "https://evo.example.com")
	t.Setenv("PROVIDER_TOKEN", "tok")
	t.Setenv("PROVIDER_INSTANCE", "shop")
	t.Setenv("PROBE_TIMEOUT", "3s")
	t.Setenv("PROBE_RETRIES", "0")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("STATUS_POLL_INTERVAL", "30")

	cfg := LoadConfig()
	assert.Equal(t, "https://evo.example.com", cfg.ProviderBaseURL)
	assert.Equal(t, "tok", cfg.ProviderToken)
	assert.Equal(t, "shop", cfg.ProviderInstance)
	assert.Equal(t, 3*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 0, cfg.ProbeRetries)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 30*time.Second, cfg.StatusPollInterval)
}

func TestGetDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("PROBE_TIMEOUT", "soon")
	assert.Equal(t, time.Minute, getDuration("PROBE_TIMEOUT", time.Minute))
}
