package weather

import (
	"fmt"
	"strings"
)

// View selects how much of a report the dashboard shows.
type View string

const (
	ViewOverview View = "overview"
	ViewDetailed View = "detailed"
)

// Daily metrics a chart can plot.
const (
	MetricTemp     = "temp"
	MetricHumidity = "humidity"
	MetricWind     = "wind"
	MetricRainfall = "rainfall"
)

// Chart describes one per-day chart: its heading and the DailyRecord field it plots.
type Chart struct {
	Title  string `json:"title"`
	Metric string `json:"metric"`
	Unit   string `json:"unit"`
}

var (
	tempChart     = Chart{Title: "Temperature Trends", Metric: MetricTemp, Unit: "°C"}
	humidityChart = Chart{Title: "Humidity Levels", Metric: MetricHumidity, Unit: "%"}
	windChart     = Chart{Title: "Wind Speed Analysis", Metric: MetricWind, Unit: "km/h"}
	rainChart     = Chart{Title: "Precipitation Data", Metric: MetricRainfall, Unit: "mm"}
)

// ParseView maps "overview" or "detailed" to a View. Empty means overview.
func ParseView(s string) (View, error) {
	switch v := View(strings.TrimSpace(strings.ToLower(s))); v {
	case "", ViewOverview:
		return ViewOverview, nil
	case ViewDetailed:
		return ViewDetailed, nil
	default:
		return "", fmt.Errorf("%w: unknown view %q (want overview or detailed)", ErrInvalidInput, s)
	}
}

// Charts lists the charts v shows, temperature first.
func (v View) Charts() []Chart {
	if v == ViewDetailed {
		return []Chart{tempChart, humidityChart, windChart, rainChart}
	}
	return []Chart{tempChart}
}

// SummaryTitle is the heading above the summary paragraph.
func (v View) SummaryTitle() string {
	if v == ViewDetailed {
		return "Detailed Summary"
	}
	return "Quick Summary"
}

// WithView returns r laid out for v.
func (r Report) WithView(v View) Report {
	if v == "" {
		v = ViewOverview
	}
	r.View = v
	r.Charts = v.Charts()
	return r
}

// Metric returns the value of the named field, or 0 for an unknown metric.
func (d DailyRecord) Metric(name string) float64 {
	switch name {
	case MetricTemp:
		return d.Temp
	case MetricHumidity:
		return d.Humidity
	case MetricWind:
		return d.Wind
	case MetricRainfall:
		return d.Rainfall
	default:
		return 0
	}
}
