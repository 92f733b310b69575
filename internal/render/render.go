// Package render writes pipeline results as terminal text or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/lox/weatherdash/internal/dashboard"
	"github.com/lox/weatherdash/internal/weather"
)

// barWidth is the widest bar drawn for a daily value.
const barWidth = 24

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// StatCard formats one summary figure with its first-to-last change.
func StatCard(title string, value float64, unit string, change float64) string {
	return fmt.Sprintf("%-16s %7.1f %-5s %s vs first day", title, value, unit, FormatChange(change))
}

// FormatChange renders a percent change with an explicit sign.
func FormatChange(change float64) string {
	if change > 0 {
		return fmt.Sprintf("+%.1f%%", change)
	}
	return fmt.Sprintf("%.1f%%", change)
}

// Report writes stat cards, a per-day table, one bar chart per chart in the
// report's view and the summary. A report without charts renders as an overview.
func Report(w io.Writer, r weather.Report) {
	fmt.Fprintf(w, "%s (%.2f, %.2f) via %s\n\n", r.Location.DisplayName(), r.Location.Latitude, r.Location.Longitude, r.Provider)

	s := r.Stats
	fmt.Fprintln(w, StatCard("Avg Temperature", s.AvgTemp, "°C", s.TempChange))
	fmt.Fprintln(w, StatCard("Avg Humidity", s.AvgHumidity, "%", s.HumidityChange))
	fmt.Fprintln(w, StatCard("Avg Wind Speed", s.AvgWind, "km/h", s.WindChange))
	fmt.Fprintln(w, StatCard("Total Rainfall", s.TotalRainfall, "mm", s.RainfallChange))
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Day", "Date", "Temp", "Min", "Max", "Humidity", "Wind", "Rain"})
	table.SetBorder(false)
	for _, d := range r.Days {
		table.Append([]string{
			d.DayLabel, d.Date,
			num(d.Temp), num(d.TempMin), num(d.TempMax),
			num(d.Humidity), num(d.Wind), num(d.Rainfall),
		})
	}
	table.Render()
	fmt.Fprintln(w)

	view := r.View
	charts := r.Charts
	if len(charts) == 0 {
		view = weather.ViewOverview
		charts = view.Charts()
	}
	for _, c := range charts {
		fmt.Fprintf(w, "%s (%s)\n", c.Title, c.Unit)
		for _, line := range Bars(r.Days, metric(c.Metric)) {
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, view.SummaryTitle())
	fmt.Fprintln(w, r.Summary)
}

func metric(name string) func(weather.DailyRecord) float64 {
	return func(d weather.DailyRecord) float64 { return d.Metric(name) }
}

// Bars draws one horizontal bar per day scaled to the largest magnitude.
func Bars(days weather.ForecastSeries, value func(weather.DailyRecord) float64) []string {
	var peak float64
	for _, d := range days {
		if v := abs(value(d)); v > peak {
			peak = v
		}
	}

	lines := make([]string, 0, len(days))
	for _, d := range days {
		v := value(d)
		n := 0
		if peak > 0 {
			n = int(abs(v) / peak * barWidth)
		}
		lines = append(lines, fmt.Sprintf("%-3s %-*s %5.1f", d.DayLabel, barWidth, strings.Repeat("█", n), v))
	}
	return lines
}

// Current writes current conditions.
func Current(w io.Writer, c weather.CurrentConditions) {
	fmt.Fprintf(w, "%s\n", weather.Coordinate{Name: c.Location, Country: c.Country}.DisplayName())
	fmt.Fprintf(w, "Temperature   %.1f °C\n", c.Temp)
	fmt.Fprintf(w, "Humidity      %.1f %%\n", c.Humidity)
	fmt.Fprintf(w, "Wind          %.1f km/h\n", c.Wind)
	fmt.Fprintf(w, "Precipitation %.1f mm\n", c.Precipitation)
	if !c.ObservedAt.IsZero() {
		fmt.Fprintf(w, "Observed      %s\n", c.ObservedAt.Format("Mon 02 Jan 15:04 MST"))
	}
}

// Matches writes city search suggestions.
func Matches(w io.Writer, matches []weather.CityMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No cities found")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"City", "Region", "Latitude", "Longitude"})
	table.SetBorder(false)
	for _, m := range matches {
		table.Append([]string{m.DisplayName, m.Admin1, fmt.Sprintf("%.3f", m.Latitude), fmt.Sprintf("%.3f", m.Longitude)})
	}
	table.Render()
}

// Comparison writes one row of summary stats per city.
func Comparison(w io.Writer, reports []weather.Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"City", "Avg Temp", "Temp Δ", "Avg Humidity", "Avg Wind", "Rainfall"})
	table.SetBorder(false)
	for _, r := range reports {
		s := r.Stats
		table.Append([]string{
			r.Location.DisplayName(),
			num(s.AvgTemp), FormatChange(s.TempChange),
			num(s.AvgHumidity), num(s.AvgWind), num(s.TotalRainfall),
		})
	}
	table.Render()
}

// State writes a dashboard state: a loading line, an error panel or the report.
func State(w io.Writer, s dashboard.State) {
	switch {
	case s.Loading:
		fmt.Fprintf(w, "Loading weather data for %s (%d days)...\n", s.Key.City, s.Key.Days)
	case s.Err != nil:
		fmt.Fprintf(w, "Error loading data: %s\n", ErrorMessage(s.Err))
	case s.Report != nil:
		Report(w, *s.Report)
	}
}

// ErrorMessage is the user-facing text for a pipeline error.
func ErrorMessage(err error) string {
	switch weather.Kind(err) {
	case weather.KindNotFound, weather.KindInvalid:
		return err.Error()
	case weather.KindTransport:
		return "could not reach the weather service, please try again"
	case weather.KindCanceled:
		return "the request timed out"
	default:
		return "weather data is unavailable right now"
	}
}

func num(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
