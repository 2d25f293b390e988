package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DB_PORT", "DB_NAME", "PORT", "STORAGE_DRIVER", "INVENTORY_COST_METHOD", "MAX_VARIANT_IMAGES", "JWT_SECRET", "S3_BUCKET"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "catalog_db", cfg.DBName)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "weighted", cfg.InventoryCostMethod)
	assert.Equal(t, 8, cfg.MaxVariantImages)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Empty(t, cfg.JWTSecret)
	assert.Empty(t, cfg.S3Bucket)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_PORT", "6543")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("INVENTORY_COST_METHOD", "batch_mean")
	t.Setenv("MAX_VARIANT_IMAGES", "3")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")

	cfg := Load()

	assert.Equal(t, 6543, cfg.DBPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, "batch_mean", cfg.InventoryCostMethod)
	assert.Equal(t, 3, cfg.MaxVariantImages)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 5, cfg.RateLimitBurst)
}
