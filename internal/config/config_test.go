package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/weatherdash/internal/openweather"
	"github.com/lox/weatherdash/internal/resilience"
)

func validConfig() Config {
	return Config{
		Provider:        "openmeteo",
		Timeout:         10 * time.Second,
		RPS:             5,
		Burst:           5,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
		LogLevel:        "info",
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.Provider = "darksky" }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"too many retries", func(c *Config) { c.Retries = 9 }, true},
		{"negative rps", func(c *Config) { c.RPS = -1 }, true},
		{"bad url", func(c *Config) { c.ForecastURL = "not a url" }, true},
		{"owm with key", func(c *Config) { c.Provider = openweather.Name; c.OWMAPIKey = "k" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Check()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckRequiresOWMKey(t *testing.T) {
	c := validConfig()
	c.Provider = openweather.Name
	assert.ErrorIs(t, c.Check(), openweather.ErrMissingAPIKey)
}

func TestSource(t *testing.T) {
	c := validConfig()
	src, err := c.Source()
	require.NoError(t, err)
	assert.Equal(t, "openmeteo", src.Name())
	assert.IsType(t, &resilience.Source{}, src)

	c.Provider = openweather.Name
	c.OWMAPIKey = "k"
	src, err = c.Source()
	require.NoError(t, err)
	assert.Equal(t, openweather.Name, src.Name())

	c.OWMAPIKey = ""
	_, err = c.Source()
	assert.ErrorIs(t, err, openweather.ErrMissingAPIKey)

	c.Provider = "darksky"
	_, err = c.Source()
	assert.Error(t, err)
}

func TestService(t *testing.T) {
	c := validConfig()
	svc, err := c.Service()
	require.NoError(t, err)
	assert.Equal(t, "openmeteo", svc.ProviderName())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("WEATHERDASH_TEST_VALUE=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("WEATHERDASH_TEST_VALUE") })

	LoadDotEnv(path)
	assert.Equal(t, "from-dotenv", os.Getenv("WEATHERDASH_TEST_VALUE"))

	// Missing files are ignored.
	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}

func TestVars(t *testing.T) {
	v := Vars()
	assert.NotEmpty(t, v["forecast_url"])
	assert.NotEmpty(t, v["geocoding_url"])
	assert.NotEmpty(t, v["owm_url"])
}
