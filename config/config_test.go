package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("RUN_WORKER", "false")
	t.Setenv("WORKER_POLL_INTERVAL_SEC", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 15*time.Second, cfg.Worker.PollInterval)
	assert.True(t, cfg.Server.RunWorker, "no redis means the server drains its own queue")
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadWithRedis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RUN_WORKER", "false")
	t.Setenv("STORE_DRIVER", "Postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.True(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Server.RunWorker)
}

func TestLoadUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")
	_, err := Load()
	assert.Error(t, err)
}

func TestAllowedOrigins(t *testing.T) {
	c := ServerConfig{CORSAllowedOrigins: " http://a.test , ,http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.AllowedOrigins())
	assert.Nil(t, ServerConfig{}.AllowedOrigins())
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "academy", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/academy?sslmode=disable", c.DSN())
	c.URL = "postgres://override"
	assert.Equal(t, "postgres://override", c.DSN())
}

func TestConfigured(t *testing.T) {
	assert.False(t, ZoomConfig{AccountID: "a", ClientID: "b"}.Configured())
	assert.True(t, ZoomConfig{AccountID: "a", ClientID: "b", ClientSecret: "c"}.Configured())
	assert.True(t, VimeoConfig{AccessToken: "t"}.Configured())
	assert.False(t, StripeConfig{PublishableKey: "pk"}.Configured())
	assert.False(t, AuthConfig{DevJWTSecret: "s"}.Configured())
}
