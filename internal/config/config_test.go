package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 10*time.Second, cfg.SearchTimeout)
	assert.Equal(t, "*/5 * * * *", cfg.RetrySchedule)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", " MySQL ")
	t.Setenv("MYSQL_DSN", "root@tcp(localhost:3306)/catalyst")
	t.Setenv("SEARCH_TIMEOUT", "3s")
	t.Setenv("APP_MODE", "production")

	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, StoreMySQL, cfg.StoreDriver)
	assert.Equal(t, 3*time.Second, cfg.SearchTimeout)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	cfg := &Config{StoreDriver: "mysql", SearchTimeout: time.Second}
	assert.Error(t, cfg.Validate())

	cfg = &Config{StoreDriver: "cassandra", SearchTimeout: time.Second}
	assert.Error(t, cfg.Validate())

	cfg = &Config{StoreDriver: "mongo", SearchTimeout: 0}
	assert.Error(t, cfg.Validate())

	cfg = &Config{StoreDriver: "mongo", SearchTimeout: time.Second}
	assert.NoError(t, cfg.Validate())
}
