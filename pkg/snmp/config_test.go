package snmp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("sw1", "public")
	assert.Equal(t, uint16(161), cfg.Port)
	assert.Equal(t, 8*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, "2c", cfg.Version)
	assert.Equal(t, WalkGetNext, cfg.WalkMode)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty target", func(c *Config) { c.Target = "" }, "target"},
		{"bad port", func(c *Config) { c.Target = "sw1:99999" }, "invalid port"},
		{"empty community", func(c *Config) { c.Community = "" }, "community"},
		{"v3", func(c *Config) { c.Version = "3" }, "unsupported SNMP version"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"negative retries", func(c *Config) { c.Retries = -1 }, "retries"},
		{"walk mode", func(c *Config) { c.WalkMode = "parallel" }, "walk mode"},
		{"bulk on v1", func(c *Config) { c.Version = "1"; c.WalkMode = WalkBulk }, "v2c"},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, "rate limit"},
		{"zero retries ok", func(c *Config) { c.Retries = 0 }, ""},
		{"bulk ok", func(c *Config) { c.WalkMode = WalkBulk }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("sw1", "public")
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_RequestBudget(t *testing.T) {
	cfg := DefaultConfig("sw1", "public")
	assert.Equal(t, 48*time.Second, cfg.RequestBudget())

	cfg.Timeout = time.Second
	cfg.Retries = 2
	cfg.ExponentialTimeout = true
	assert.Equal(t, 7*time.Second, cfg.RequestBudget())
}
