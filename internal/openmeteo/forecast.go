package openmeteo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lox/weatherdash/internal/weather"
)

var dailyFields = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"temperature_2m_mean",
	"relative_humidity_2m_mean",
	"windspeed_10m_max",
	"precipitation_sum",
}

var currentFields = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"windspeed_10m",
	"precipitation",
}

// ForecastResponse is the subset of /v1/forecast used here.
type ForecastResponse struct {
	Timezone string        `json:"timezone"`
	Daily    *DailyBlock   `json:"daily"`
	Current  *CurrentBlock `json:"current"`
}

// DailyBlock holds parallel per-day arrays. Entries are pointers because
// the API emits null for days it has no data for.
type DailyBlock struct {
	Time     []string   `json:"time"`
	TempMean []*float64 `json:"temperature_2m_mean"`
	TempMin  []*float64 `json:"temperature_2m_min"`
	TempMax  []*float64 `json:"temperature_2m_max"`
	Humidity []*float64 `json:"relative_humidity_2m_mean"`
	Wind     []*float64 `json:"windspeed_10m_max"`
	Precip   []*float64 `json:"precipitation_sum"`
}

type CurrentBlock struct {
	Time          string   `json:"time"`
	Temperature   *float64 `json:"temperature_2m"`
	Humidity      *float64 `json:"relative_humidity_2m"`
	WindSpeed     *float64 `json:"windspeed_10m"`
	Precipitation *float64 `json:"precipitation"`
}

// Daily fetches days of daily aggregates for loc.
func (c *Client) Daily(ctx context.Context, loc weather.Coordinate, days int) (weather.ForecastSeries, error) {
	if days <= 0 || days > MaxForecastDays {
		return nil, fmt.Errorf("openmeteo: %d days outside 1-%d: %w", days, MaxForecastDays, weather.ErrInvalidDays)
	}

	values := coordValues(loc)
	values.Set("daily", strings.Join(dailyFields, ","))
	values.Set("timezone", "auto")
	values.Set("forecast_days", strconv.Itoa(days))

	var data ForecastResponse
	if err := c.fetcher.GetJSON(ctx, "forecast", buildURL(c.forecastURL, "/forecast", values), &data); err != nil {
		return nil, err
	}
	return NormalizeDaily(data.Daily)
}

// NormalizeDaily turns the parallel daily arrays into records. Arrays of
// unequal length, null values and unparsable dates are rejected.
func NormalizeDaily(d *DailyBlock) (weather.ForecastSeries, error) {
	const op = "openmeteo forecast"
	if d == nil || len(d.Time) == 0 {
		return nil, weather.Malformed(op, "missing daily data")
	}

	n := len(d.Time)
	columns := []struct {
		name   string
		values []*float64
	}{
		{"temperature_2m_mean", d.TempMean},
		{"temperature_2m_min", d.TempMin},
		{"temperature_2m_max", d.TempMax},
		{"relative_humidity_2m_mean", d.Humidity},
		{"windspeed_10m_max", d.Wind},
		{"precipitation_sum", d.Precip},
	}
	for _, col := range columns {
		if len(col.values) != n {
			return nil, weather.Malformed(op, "%s has %d entries, time has %d", col.name, len(col.values), n)
		}
		for i, v := range col.values {
			if v == nil {
				return nil, weather.Malformed(op, "%s[%d] is null", col.name, i)
			}
		}
	}

	series := make(weather.ForecastSeries, 0, n)
	for i, date := range d.Time {
		label, err := weather.DayLabel(date)
		if err != nil {
			return nil, weather.Malformed(op, "time[%d]=%q: %v", i, date, err)
		}
		series = append(series, weather.DailyRecord{
			Date:     date,
			DayLabel: label,
			Temp:     weather.Round1(*d.TempMean[i]),
			TempMin:  weather.Round1(*d.TempMin[i]),
			TempMax:  weather.Round1(*d.TempMax[i]),
			Humidity: weather.Round1(*d.Humidity[i]),
			Wind:     weather.Round1(*d.Wind[i]),
			Rainfall: weather.Round1(*d.Precip[i]),
		})
	}
	return series, nil
}

// Current fetches the current conditions for loc.
func (c *Client) Current(ctx context.Context, loc weather.Coordinate) (weather.CurrentConditions, error) {
	const op = "openmeteo current"

	values := coordValues(loc)
	values.Set("current", strings.Join(currentFields, ","))
	values.Set("timezone", "auto")

	var data ForecastResponse
	if err := c.fetcher.GetJSON(ctx, "current", buildURL(c.forecastURL, "/forecast", values), &data); err != nil {
		return weather.CurrentConditions{}, err
	}

	cur := data.Current
	if cur == nil || cur.Temperature == nil || cur.Humidity == nil || cur.WindSpeed == nil {
		return weather.CurrentConditions{}, weather.Malformed(op, "missing current data")
	}

	result := weather.CurrentConditions{
		Temp:     weather.Round1(*cur.Temperature),
		Humidity: weather.Round1(*cur.Humidity),
		Wind:     weather.Round1(*cur.WindSpeed),
		Location: loc.Name,
		Country:  loc.Country,
	}
	if cur.Precipitation != nil {
		result.Precipitation = weather.Round1(*cur.Precipitation)
	}
	if t, err := parseLocalTime(cur.Time, data.Timezone); err == nil {
		result.ObservedAt = t
	}
	return result, nil
}

func coordValues(loc weather.Coordinate) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	return values
}

// parseLocalTime parses Open-Meteo's "2006-01-02T15:04" local timestamps.
func parseLocalTime(s, tz string) (time.Time, error) {
	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	return time.ParseInLocation("2006-01-02T15:04", s, loc)
}
