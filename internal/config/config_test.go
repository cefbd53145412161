package config_test

import (
	"testing"
	"time"

	"github.com/nikolayk812/cartstate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, "@cartstate:cart", cfg.CartKey)
	assert.Equal(t, "after", cfg.SnapshotPolicy)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, "BRL", cfg.CatalogCurrency)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CART_STORE", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_TTL", "24h")
	t.Setenv("API_TIMEOUT", "250ms")
	t.Setenv("HTTP_PORT", "8080")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreRedis, cfg.Store)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 24*time.Hour, cfg.RedisTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.APITimeout)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLoad_MalformedValues(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantError []string
	}{
		{
			name:      "duration",
			env:       map[string]string{"API_TIMEOUT": "abc"},
			wantError: []string{"API_TIMEOUT[abc] is not a duration"},
		},
		{
			name:      "integer",
			env:       map[string]string{"HTTP_PORT": "not-a-number"},
			wantError: []string{"HTTP_PORT[not-a-number] is not an integer"},
		},
		{
			name: "all reported",
			env:  map[string]string{"REDIS_DB": "x", "REDIS_TTL": "1 day"},
			wantError: []string{
				"REDIS_DB[x] is not an integer",
				"REDIS_TTL[1 day] is not a duration",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			require.Error(t, err)
			for _, want := range tt.wantError {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *config.Config)
		wantError string
	}{
		{
			name:      "unknown store",
			mutate:    func(c *config.Config) { c.Store = "mongo" },
			wantError: "store[mongo] is not supported",
		},
		{
			name:      "unknown policy",
			mutate:    func(c *config.Config) { c.SnapshotPolicy = "never" },
			wantError: "snapshot policy[never] is not supported",
		},
		{
			name:      "empty key",
			mutate:    func(c *config.Config) { c.CartKey = "" },
			wantError: "cart key is empty",
		},
		{
			name:      "zero timeout",
			mutate:    func(c *config.Config) { c.APITimeout = 0 },
			wantError: "api timeout[0s] is not positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load()
			require.NoError(t, err)
			tt.mutate(&cfg)

			require.EqualError(t, cfg.Validate(), tt.wantError)
		})
	}
}
