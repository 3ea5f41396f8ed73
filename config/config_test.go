package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigEnvOverrides(t *testing.T) {
	t.Setenv("CORTEXDASH_BACKEND_URL", "http://backend.local:5000")
	t.Setenv("CORTEXDASH_REQUEST_TIMEOUT", "12")
	t.Setenv("CORTEXDASH_DEFAULT_COMPANY", "Apple")
	t.Setenv("CORTEXDASH_DEBUG", "true")

	cfg := DefaultConfig()
	assert.Equal(t, "http://backend.local:5000", cfg.BackendURL)
	assert.Equal(t, 12*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "apple", cfg.DefaultCompany)
	assert.True(t, cfg.Debug)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"empty url", func(c *Config) { c.BackendURL = "" }, false},
		{"bad scheme", func(c *Config) { c.BackendURL = "ftp://x" }, false},
		{"no host", func(c *Config) { c.BackendURL = "http://" }, false},
		{"zero timeout", func(c *Config) { c.RequestTimeoutSec = 0 }, false},
		{"relative path", func(c *Config) { c.ClearSessionPath = "clear_session" }, false},
		{"negative recent", func(c *Config) { c.RecentLimit = -1 }, false},
		{"upper company", func(c *Config) { c.Companies = []CompanyEntry{{Key: "Tesla", Name: "Tesla"}} }, false},
		{"dup company", func(c *Config) {
			c.Companies = []CompanyEntry{{Key: "tesla"}, {Key: "tesla"}}
		}, false},
		{"custom companies", func(c *Config) {
			c.Companies = []CompanyEntry{{Key: "tesla", Name: "Tesla"}}
			c.DefaultCompany = "tesla"
		}, true},
		{"default outside custom companies", func(c *Config) {
			c.Companies = []CompanyEntry{{Key: "tesla"}}
		}, false},
		{"unknown default", func(c *Config) { c.DefaultCompany = "tesla" }, false},
		{"empty default", func(c *Config) { c.DefaultCompany = "" }, false},
		{"default by name", func(c *Config) { c.DefaultCompany = "MINISO" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
