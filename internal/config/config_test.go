package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "LOG_MODE", "DB_DRIVER", "ASSEMBLY_FIXED_SEED", "ASSEMBLY_OVERSAMPLE", "REQUEST_TIMEOUT_SEC", "ENABLE_LOCAL_AUTH"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()

	assert.Equal(t, ModeOffline, cfg.Mode)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.EnableLocalAuth)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.Assembly.Oversample)
	assert.Equal(t, 10, cfg.Assembly.EmergencyLimit)
	assert.Nil(t, cfg.Assembly.FixedSeed)
	assert.Equal(t, cfg.CORSOriginsOffline, cfg.CORSOrigins())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("ASSEMBLY_FIXED_SEED", "1234")
	t.Setenv("ASSEMBLY_OVERSAMPLE", "3")
	t.Setenv("ENABLE_LOCAL_AUTH", "no")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	t.Setenv("REQUEST_TIMEOUT_SEC", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, "prod", cfg.LogMode)
	require.NotNil(t, cfg.Assembly.FixedSeed)
	assert.Equal(t, uint64(1234), *cfg.Assembly.FixedSeed)
	assert.Equal(t, 3, cfg.Assembly.Oversample)
	assert.False(t, cfg.EnableLocalAuth)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}
