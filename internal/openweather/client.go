// Package openweather adapts the API-key based OpenWeatherMap endpoints to weather.Source.
package openweather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lox/weatherdash/internal/httputil"
	"github.com/lox/weatherdash/internal/weather"
)

const (
	Name = "openweathermap"

	DefaultBaseURL = "https://api.openweathermap.org"

	// MaxForecastDays is the number of daily entries One Call returns.
	MaxForecastDays = 8

	// msToKmh converts the metric API's m/s wind speeds to km/h.
	msToKmh = 3.6
)

var ErrMissingAPIKey = errors.New("openweathermap api key is not configured")

// Client implements weather.Source against OpenWeatherMap.
type Client struct {
	apiKey  string
	baseURL string
	fetcher *httputil.Fetcher
}

var _ weather.Source = (*Client)(nil)

// NewClient creates a client. baseURL may be empty for the public API.
func NewClient(httpClient *http.Client, apiKey, baseURL string, retries uint64) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		fetcher: httputil.NewFetcher(httpClient, Name, retries),
	}, nil
}

func (c *Client) Name() string {
	return Name
}

func (c *Client) url(path string, values url.Values) string {
	values.Set("appid", c.apiKey)
	return c.baseURL + path + "?" + values.Encode()
}

type geoResult struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

func (c *Client) geocode(ctx context.Context, query string, limit int) ([]geoResult, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", strconv.Itoa(limit))

	var results []geoResult
	if err := c.fetcher.GetJSON(ctx, "geo/direct", c.url("/geo/1.0/direct", values), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Resolve returns the best match for query.
func (c *Client) Resolve(ctx context.Context, query string) (weather.Coordinate, error) {
	results, err := c.geocode(ctx, query, 1)
	if err != nil {
		return weather.Coordinate{}, err
	}
	if len(results) == 0 {
		return weather.Coordinate{}, &weather.NotFoundError{Query: query}
	}
	r := results[0]
	return weather.Coordinate{Latitude: r.Lat, Longitude: r.Lon, Name: r.Name, Country: r.Country}, nil
}

// Search returns up to count matches. The geocoding API caps limit at 5.
func (c *Client) Search(ctx context.Context, query string, count int) ([]weather.CityMatch, error) {
	if count > 5 {
		count = 5
	}
	results, err := c.geocode(ctx, query, count)
	if err != nil {
		return nil, err
	}
	matches := make([]weather.CityMatch, 0, len(results))
	for _, r := range results {
		matches = append(matches, weather.CityMatch{
			Name:        r.Name,
			Country:     r.Country,
			Admin1:      r.State,
			Latitude:    r.Lat,
			Longitude:   r.Lon,
			DisplayName: weather.Coordinate{Name: r.Name, Country: r.Country}.DisplayName(),
		})
	}
	return matches, nil
}

// OneCallResponse is the subset of /data/2.5/onecall used here.
type OneCallResponse struct {
	TimezoneOffset int64        `json:"timezone_offset"`
	Daily          []DailyEntry `json:"daily"`
}

type DailyEntry struct {
	Dt   int64 `json:"dt"`
	Temp *struct {
		Day float64 `json:"day"`
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	Humidity  *float64 `json:"humidity"`
	WindSpeed *float64 `json:"wind_speed"`
	Rain      float64  `json:"rain"`
}

// Daily fetches days of daily forecast for loc.
func (c *Client) Daily(ctx context.Context, loc weather.Coordinate, days int) (weather.ForecastSeries, error) {
	if days <= 0 || days > MaxForecastDays {
		return nil, fmt.Errorf("openweathermap: %d days outside 1-%d: %w", days, MaxForecastDays, weather.ErrInvalidDays)
	}

	values := coordValues(loc)
	values.Set("exclude", "current,minutely,hourly,alerts")
	values.Set("units", "metric")

	var data OneCallResponse
	if err := c.fetcher.GetJSON(ctx, "onecall", c.url("/data/2.5/onecall", values), &data); err != nil {
		return nil, err
	}
	return NormalizeDaily(data, days)
}

// NormalizeDaily converts the first days entries into records, with wind in km/h.
func NormalizeDaily(data OneCallResponse, days int) (weather.ForecastSeries, error) {
	const op = "openweathermap onecall"
	if len(data.Daily) < days {
		return nil, weather.Malformed(op, "got %d daily entries, requested %d", len(data.Daily), days)
	}

	series := make(weather.ForecastSeries, 0, days)
	for i, d := range data.Daily[:days] {
		if d.Temp == nil || d.Humidity == nil || d.WindSpeed == nil {
			return nil, weather.Malformed(op, "daily[%d] is missing fields", i)
		}
		day := time.Unix(d.Dt+data.TimezoneOffset, 0).UTC()
		series = append(series, weather.DailyRecord{
			Date:     day.Format(time.DateOnly),
			DayLabel: day.Format("Mon"),
			Temp:     weather.Round1(d.Temp.Day),
			TempMin:  weather.Round1(d.Temp.Min),
			TempMax:  weather.Round1(d.Temp.Max),
			Humidity: weather.Round1(*d.Humidity),
			Wind:     weather.Round1(*d.WindSpeed * msToKmh),
			Rainfall: weather.Round1(d.Rain),
		})
	}
	return series, nil
}

type currentResponse struct {
	Dt   int64  `json:"dt"`
	Name string `json:"name"`
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		OneH float64 `json:"1h"`
	} `json:"rain"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// Current fetches current conditions for loc.
func (c *Client) Current(ctx context.Context, loc weather.Coordinate) (weather.CurrentConditions, error) {
	values := coordValues(loc)
	values.Set("units", "metric")

	var data currentResponse
	if err := c.fetcher.GetJSON(ctx, "weather", c.url("/data/2.5/weather", values), &data); err != nil {
		return weather.CurrentConditions{}, err
	}
	if data.Main == nil {
		return weather.CurrentConditions{}, weather.Malformed("openweathermap weather", "missing main block")
	}

	return weather.CurrentConditions{
		Temp:          weather.Round1(data.Main.Temp),
		Humidity:      weather.Round1(data.Main.Humidity),
		Wind:          weather.Round1(data.Wind.Speed * msToKmh),
		Precipitation: weather.Round1(data.Rain.OneH),
		Location:      loc.Name,
		Country:       loc.Country,
		ObservedAt:    time.Unix(data.Dt, 0).UTC(),
	}, nil
}

func coordValues(loc weather.Coordinate) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	values.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	return values
}
