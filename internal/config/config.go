// Package config loads the garden's server, database, client and log
// settings from a YAML file and GARDEN_* environment variables.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Client   ClientConfig   `yaml:"client"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds settings for `secretgarden serve`.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"GARDEN_SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"GARDEN_SERVER_PORT"             env-default:"8888"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"GARDEN_SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"GARDEN_SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"GARDEN_SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"GARDEN_SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// DisableAdvertise turns off the mDNS announcement. cleanenv fills
	// env-default into any field still false, so this one must default off.
	DisableAdvertise bool `yaml:"disable_advertise" env:"GARDEN_SERVER_DISABLE_ADVERTISE"`
	// AllowedOrigins is a comma-separated list for the live websocket; "*" allows any.
	AllowedOrigins string `yaml:"allowed_origins" env:"GARDEN_SERVER_ALLOWED_ORIGINS" env-default:"*"`
	// MaxBodyBytes bounds a plant request, drawing included.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"GARDEN_SERVER_MAX_BODY_BYTES" env-default:"2097152"`
}

// DatabaseConfig selects the authoritative store.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"         env:"GARDEN_DATABASE_DRIVER"         env-default:"sqlite"`
	DSN          string `yaml:"dsn"            env:"GARDEN_DATABASE_DSN"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"GARDEN_DATABASE_MAX_OPEN_CONNS" env-default:"10"`
}

// ClientConfig holds settings for commands that talk to a garden server.
type ClientConfig struct {
	// ServerURL is the garden server base URL. Empty means discover over mDNS.
	ServerURL       string        `yaml:"server_url"       env:"GARDEN_SERVER_URL"`
	DiscoverTimeout time.Duration `yaml:"discover_timeout" env:"GARDEN_CLIENT_DISCOVER_TIMEOUT" env-default:"3s"`
	RequestTimeout  time.Duration `yaml:"request_timeout"  env:"GARDEN_CLIENT_REQUEST_TIMEOUT"  env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"GARDEN_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"GARDEN_LOG_FORMAT" env-default:"console"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
