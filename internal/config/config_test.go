package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, DefaultSessionTTL, cfg.SessionTTLMinutes)
	assert.False(t, cfg.LegacyTiers)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GE_PORT", "9090")
	t.Setenv("GE_ENV", "production")
	t.Setenv("GE_DB_PATH", "/tmp/ge.db")
	t.Setenv("GE_LEGACY_TIERS", "true")
	t.Setenv("GE_SESSION_TTL_MINUTES", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/tmp/ge.db", cfg.DBPath)
	assert.True(t, cfg.LegacyTiers)
	assert.Equal(t, 5, cfg.SessionTTLMinutes)
}

func TestLoad_InvalidTTL(t *testing.T) {
	t.Setenv("GE_SESSION_TTL_MINUTES", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_CatalogDirMustExist(t *testing.T) {
	t.Setenv("GE_CATALOG_DIR", "/no/such/directory")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_CatalogDirAccepted(t *testing.T) {
	t.Setenv("GE_CATALOG_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.CatalogDir)
}

func TestLoad_MalformedIntFallsBack(t *testing.T) {
	t.Setenv("GE_SESSION_TTL_MINUTES", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionTTL, cfg.SessionTTLMinutes)
}
