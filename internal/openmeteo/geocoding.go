package openmeteo

import (
	"context"
	"net/url"
	"strconv"

	"github.com/lox/weatherdash/internal/weather"
)

type geocodingResponse struct {
	Results []geocodingResult `json:"results"`
}

type geocodingResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1"`
}

func (c *Client) geocode(ctx context.Context, query string, count int) ([]geocodingResult, error) {
	values := url.Values{}
	values.Set("name", query)
	values.Set("count", strconv.Itoa(count))
	values.Set("language", language)
	values.Set("format", "json")

	var data geocodingResponse
	if err := c.fetcher.GetJSON(ctx, "search", buildURL(c.geocodingURL, "/search", values), &data); err != nil {
		return nil, err
	}
	return data.Results, nil
}

// Resolve returns the single best geocoding match for query.
func (c *Client) Resolve(ctx context.Context, query string) (weather.Coordinate, error) {
	results, err := c.geocode(ctx, query, 1)
	if err != nil {
		return weather.Coordinate{}, err
	}
	if len(results) == 0 {
		return weather.Coordinate{}, &weather.NotFoundError{Query: query}
	}

	r := results[0]
	return weather.Coordinate{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Name:      r.Name,
		Country:   r.Country,
	}, nil
}

// Search returns up to count matches for query. No match is an empty slice.
func (c *Client) Search(ctx context.Context, query string, count int) ([]weather.CityMatch, error) {
	results, err := c.geocode(ctx, query, count)
	if err != nil {
		return nil, err
	}

	matches := make([]weather.CityMatch, 0, len(results))
	for _, r := range results {
		m := weather.CityMatch{
			Name:      r.Name,
			Country:   r.Country,
			Admin1:    r.Admin1,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		}
		m.DisplayName = weather.Coordinate{Name: r.Name, Country: r.Country}.DisplayName()
		matches = append(matches, m)
	}
	return matches, nil
}
