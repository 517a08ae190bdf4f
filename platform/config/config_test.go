package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEOCODER_PROVIDER", "nominatim")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderNominatim, cfg.GetGeocoderProvider())
	assert.Equal(t, 5*time.Second, cfg.GetGeocoderTimeout())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.GetCORSOrigins())
	assert.False(t, cfg.GetCORSAllowAll())
}

func TestLoadWildcardOriginAllowsAll(t *testing.T) {
	t.Setenv("GEOCODER_PROVIDER", "nominatim")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.GetCORSAllowAll())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{GeocoderProvider: ProviderNominatim, GeocoderTimeout: time.Second}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "nominatim", mutate: func(*Config) {}},
		{name: "google without key", mutate: func(c *Config) { c.GeocoderProvider = ProviderGoogle }, wantErr: true},
		{name: "google with key", mutate: func(c *Config) {
			c.GeocoderProvider = ProviderGoogle
			c.GoogleMapsAPIKey = "k"
		}},
		{name: "unknown provider", mutate: func(c *Config) { c.GeocoderProvider = "bing" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.GeocoderTimeout = 0 }, wantErr: true},
		{name: "credentials with wildcard", mutate: func(c *Config) {
			c.CORSAllowAll = true
			c.CORSAllowCreds = true
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
