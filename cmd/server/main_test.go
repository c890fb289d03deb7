package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athulkrishnap25/expanse-tracker/internal/config"
	"github.com/athulkrishnap25/expanse-tracker/internal/store"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	assert.Error(t, validateSecurityConfig(config.Config{AuthSecret: "short"}))
	assert.Error(t, validateSecurityConfig(config.Config{
		AuthSecret:    "0123456789abcdef0123456789abcdef",
		DatabaseURL:   "postgres://localhost/expenses",
		AdminPassword: "abc",
	}))
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	assert.NoError(t, validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"}))
}

func TestOpenRepositoryDefaultsToMemory(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "admin123")

	repo, closeFn, err := openRepository(context.Background(), config.Config{}, store.StockAllowNegative, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, closeFn)

	products, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, products)
}
