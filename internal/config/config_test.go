package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8888, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8888", cfg.Server.Addr())
	assert.False(t, cfg.Server.DisableAdvertise)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Empty(t, cfg.Client.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.Client.DiscoverTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garden.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  disable_advertise: true
database:
  driver: Postgres
  dsn: postgres://garden@localhost/garden
log:
  format: JSON
`), 0o644))

	t.Setenv("GARDEN_LOG_LEVEL", "debug")
	t.Setenv("GARDEN_SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env overrides yaml")
	assert.True(t, cfg.Server.DisableAdvertise, "yaml value survives defaults")
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8888, ShutdownTimeout: time.Second, MaxBodyBytes: 1024},
			Database: DatabaseConfig{Driver: "sqlite", MaxOpenConns: 1},
			Client:   ClientConfig{DiscoverTimeout: time.Second, RequestTimeout: time.Second},
			Log:      LogConfig{Level: "info", Format: "console"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"server url", func(c *Config) { c.Client.ServerURL = "http://10.0.0.2:8888" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, false},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, false},
		{"server url without scheme", func(c *Config) { c.Client.ServerURL = "10.0.0.2:8888" }, false},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoad_DisableAdvertiseFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfigPath, "")
	t.Setenv("GARDEN_SERVER_DISABLE_ADVERTISE", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Server.DisableAdvertise)
}
