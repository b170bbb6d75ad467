package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "fitness_challenges", cfg.Database.Name)
	assert.False(t, cfg.Database.Transactions)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.Equal(t, 30, cfg.RateLimit.Burst)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
database:
  driver: sqlite
  sqlite_path: /tmp/c.db
jwt:
  secret: from-file
rate_limit:
  burst: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("RATE_LIMIT_BURST", "12")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/c.db", cfg.Database.SQLitePath)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 12, cfg.RateLimit.Burst)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig(t.TempDir())
	assert.EqualError(t, err, "jwt.secret is required")
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DATABASE_DRIVER", "postgres")

	_, err := LoadConfig(t.TempDir())
	assert.EqualError(t, err, "database.driver must be mongo or sqlite")
}
