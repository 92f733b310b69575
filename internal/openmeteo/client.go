// Package openmeteo talks to the keyless Open-Meteo geocoding and forecast APIs.
package openmeteo

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/lox/weatherdash/internal/httputil"
	"github.com/lox/weatherdash/internal/weather"
)

const (
	Name = "openmeteo"

	DefaultForecastURL  = "https://api.open-meteo.com/v1"
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1"

	// MaxForecastDays is the longest span the forecast endpoint serves.
	MaxForecastDays = 16

	language = "en"
)

// Client implements weather.Source against Open-Meteo.
type Client struct {
	fetcher      *httputil.Fetcher
	forecastURL  string
	geocodingURL string
}

var _ weather.Source = (*Client)(nil)

// Option customises a Client.
type Option func(*Client)

// WithBaseURLs points the client at alternative forecast and geocoding hosts.
// Empty values keep the defaults.
func WithBaseURLs(forecastURL, geocodingURL string) Option {
	return func(c *Client) {
		if forecastURL != "" {
			c.forecastURL = strings.TrimRight(forecastURL, "/")
		}
		if geocodingURL != "" {
			c.geocodingURL = strings.TrimRight(geocodingURL, "/")
		}
	}
}

// WithRetries enables retries of rate-limited and 5xx responses.
func WithRetries(n uint64) Option {
	return func(c *Client) { c.fetcher.Retries = n }
}

// NewClient creates an Open-Meteo client sharing httpClient.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		fetcher:      httputil.NewFetcher(httpClient, Name, 0),
		forecastURL:  DefaultForecastURL,
		geocodingURL: DefaultGeocodingURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return Name
}

func buildURL(base, path string, values url.Values) string {
	return base + path + "?" + values.Encode()
}
