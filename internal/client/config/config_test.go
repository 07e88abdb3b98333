package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, "127.0.0.1:50051", c.HealthAddr)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
}

func TestLoad_FlagsOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"server_url":  "http://json:1",
		"health_addr": "json:2",
	})

	cfg := load([]string{"-c", path, "-a", "http://flag:3", "-x", "ignored"})

	require.NotNil(t, cfg)
	assert.Equal(t, "http://flag:3", cfg.ServerURL)
	assert.Equal(t, "json:2", cfg.HealthAddr)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}
