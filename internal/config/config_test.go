package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AuthSecret)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STOCK_POLICY", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "0")
	t.Setenv("ADMIN_USERNAME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "allow", cfg.StockPolicy)
	assert.Equal(t, 480, cfg.AccessTokenTTLMinutes)
	assert.Equal(t, "sales:created", cfg.SaleQueueKey)
	assert.Equal(t, "admin", cfg.AdminUsername)
}

func TestLoadRejectsUnknownStockPolicy(t *testing.T) {
	t.Setenv("STOCK_POLICY", "clamp")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadReadsTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("STOCK_POLICY", "REJECT")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
	assert.Equal(t, "reject", cfg.StockPolicy)
}

func TestLoadRejectsMalformedIntegers(t *testing.T) {
	t.Setenv("REDIS_DB", "one")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")

	t.Setenv("REDIS_DB", "2")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "8h")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_TTL_MINUTES")

	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "60")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 60, cfg.AccessTokenTTLMinutes)
}
