package weather

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Coordinate is a resolved place.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"resolvedName"`
	Country   string  `json:"country"`
}

// DisplayName returns "Name, Country", or just the name when the country is unknown.
func (c Coordinate) DisplayName() string {
	if c.Country == "" {
		return c.Name
	}
	return c.Name + ", " + c.Country
}

// DailyRecord is one calendar day of forecast. Numeric fields carry one decimal.
type DailyRecord struct {
	Date     string  `json:"date"`
	DayLabel string  `json:"day"`
	Temp     float64 `json:"temp"`
	TempMin  float64 `json:"tempMin"`
	TempMax  float64 `json:"tempMax"`
	Humidity float64 `json:"humidity"`
	Wind     float64 `json:"wind"`
	Rainfall float64 `json:"rainfall"`
}

// ForecastSeries is ordered earliest day first.
type ForecastSeries []DailyRecord

// SummaryStats is derived from a ForecastSeries and never mutated after creation.
type SummaryStats struct {
	AvgTemp        float64 `json:"avgTemp"`
	AvgHumidity    float64 `json:"avgHumidity"`
	AvgWind        float64 `json:"avgWind"`
	TotalRainfall  float64 `json:"totalRainfall"`
	TempChange     float64 `json:"tempChange"`
	HumidityChange float64 `json:"humidityChange"`
	WindChange     float64 `json:"windChange"`
	RainfallChange float64 `json:"rainfallChange"`
}

// CityMatch is one geocoding suggestion.
type CityMatch struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	Admin1      string  `json:"admin1,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
}

// CurrentConditions is the latest observation-like reading for a place.
type CurrentConditions struct {
	Temp          float64   `json:"temp"`
	Humidity      float64   `json:"humidity"`
	Wind          float64   `json:"wind"`
	Precipitation float64   `json:"precipitation"`
	Location      string    `json:"location"`
	Country       string    `json:"country"`
	ObservedAt    time.Time `json:"observedAt"`
}

// Report bundles everything the dashboard shows for one (city, range) selection.
type Report struct {
	Location Coordinate     `json:"location"`
	Days     ForecastSeries `json:"days"`
	Stats    SummaryStats   `json:"stats"`
	Summary  string         `json:"summary"`
	Provider string         `json:"provider"`
	View     View           `json:"view"`
	Charts   []Chart        `json:"charts"`
}

// Date range selector values offered by the dashboard.
const (
	Range7Days = "7days"
	Range5Days = "5days"
)

// ParseRange maps a date range selector value ("7days", "5days") or a bare
// positive integer to a day count.
func ParseRange(s string) (int, error) {
	v := strings.TrimSpace(strings.ToLower(s))
	v = strings.TrimSuffix(v, "days")
	v = strings.TrimSuffix(v, "d")
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("parse range %q: %w", s, ErrInvalidDays)
	}
	return n, nil
}
