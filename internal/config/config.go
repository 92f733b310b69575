// Package config holds the options shared by every weatherdash command and
// builds the forecast service from them.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lox/weatherdash/internal/httputil"
	"github.com/lox/weatherdash/internal/openmeteo"
	"github.com/lox/weatherdash/internal/openweather"
	"github.com/lox/weatherdash/internal/resilience"
	"github.com/lox/weatherdash/internal/weather"
)

// Config is embedded into the CLI; kong fills it from flags and the environment.
type Config struct {
	Provider  string `help:"Forecast provider (${enum})." enum:"openmeteo,openweathermap" default:"openmeteo" env:"WEATHERDASH_PROVIDER" validate:"oneof=openmeteo openweathermap"`
	OWMAPIKey string `name:"owm-api-key" help:"OpenWeatherMap API key." env:"OPENWEATHER_API_KEY"`

	Timeout time.Duration `help:"Upstream HTTP timeout." default:"10s" env:"WEATHERDASH_TIMEOUT" validate:"gt=0"`
	Retries uint64        `help:"Extra attempts for rate-limited or 5xx upstream responses." default:"0" env:"WEATHERDASH_RETRIES" validate:"lte=5"`

	RPS             float64       `name:"rps" help:"Upstream request rate limit per second (0 disables)." default:"5" env:"WEATHERDASH_RPS" validate:"gte=0"`
	Burst           int           `help:"Rate limiter burst size." default:"5" env:"WEATHERDASH_BURST" validate:"gte=0"`
	BreakerFailures uint32        `help:"Consecutive upstream failures that open the circuit (0 disables)." default:"5" env:"WEATHERDASH_BREAKER_FAILURES"`
	BreakerTimeout  time.Duration `help:"How long an open circuit rejects calls." default:"30s" env:"WEATHERDASH_BREAKER_TIMEOUT" validate:"gte=0"`

	ForecastURL  string `hidden:"" help:"Override the Open-Meteo forecast base URL." default:"${forecast_url}" env:"WEATHERDASH_FORECAST_URL" validate:"omitempty,url"`
	GeocodingURL string `hidden:"" help:"Override the Open-Meteo geocoding base URL." default:"${geocoding_url}" env:"WEATHERDASH_GEOCODING_URL" validate:"omitempty,url"`
	OWMURL       string `name:"owm-url" hidden:"" help:"Override the OpenWeatherMap base URL." default:"${owm_url}" env:"WEATHERDASH_OWM_URL" validate:"omitempty,url"`

	LogLevel string `help:"Log level (${enum})." enum:"debug,info,warn,error" default:"info" env:"WEATHERDASH_LOG_LEVEL"`
}

// Vars are the kong interpolation variables Config's defaults refer to.
func Vars() map[string]string {
	return map[string]string{
		"forecast_url":  openmeteo.DefaultForecastURL,
		"geocoding_url": openmeteo.DefaultGeocodingURL,
		"owm_url":       openweather.DefaultBaseURL,
	}
}

// LoadDotEnv loads .env files into the environment before flags are parsed.
// A missing file is not an error.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("component", "config").Msg("could not load .env")
	}
}

var validate = validator.New()

// Check validates option ranges and provider requirements.
func (c *Config) Check() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Provider == openweather.Name && c.OWMAPIKey == "" {
		return fmt.Errorf("invalid config: %w", openweather.ErrMissingAPIKey)
	}
	return nil
}

// SetupLogging configures the global zerolog logger. A terminal gets the
// console writer, anything else gets JSON lines.
func (c *Config) SetupLogging() {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// Source builds the configured weather source, wrapped with rate limiting
// and circuit breaking.
func (c *Config) Source() (weather.Source, error) {
	httpClient := httputil.NewClient(c.Timeout)

	var src weather.Source
	switch c.Provider {
	case openweather.Name:
		owm, err := openweather.NewClient(httpClient, c.OWMAPIKey, c.OWMURL, c.Retries)
		if err != nil {
			return nil, err
		}
		src = owm
	case openmeteo.Name, "":
		src = openmeteo.NewClient(httpClient,
			openmeteo.WithBaseURLs(c.ForecastURL, c.GeocodingURL),
			openmeteo.WithRetries(c.Retries),
		)
	default:
		return nil, fmt.Errorf("unknown provider %q", c.Provider)
	}

	return resilience.Wrap(src, resilience.Options{
		RPS:              c.RPS,
		Burst:            c.Burst,
		FailureThreshold: c.BreakerFailures,
		OpenTimeout:      c.BreakerTimeout,
	}), nil
}

// Service builds the forecast service for the configured provider.
func (c *Config) Service() (*weather.Service, error) {
	src, err := c.Source()
	if err != nil {
		return nil, err
	}
	return weather.NewSourceService(src), nil
}
