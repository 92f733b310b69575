package weather

import (
	"fmt"
	"strings"
)

// trendThreshold is the percent change below which a period counts as stable.
const trendThreshold = 1.0

// Trend describes a percent change as "warming", "cooling" or "stable".
func Trend(change float64) string {
	switch {
	case change >= trendThreshold:
		return "warming"
	case change <= -trendThreshold:
		return "cooling"
	default:
		return "stable"
	}
}

// Summarize writes the period summary paragraph shown under the charts.
func Summarize(loc Coordinate, days int, stats SummaryStats) string {
	var b strings.Builder

	place := loc.DisplayName()
	if place == "" {
		place = "the selected city"
	}

	fmt.Fprintf(&b, "Over the next %d days in %s the average temperature is %.1f°C. ", days, place, stats.AvgTemp)
	fmt.Fprintf(&b, "Humidity averages %.1f%% and wind speeds average %.1f km/h. ", stats.AvgHumidity, stats.AvgWind)

	if stats.TotalRainfall > 0 {
		fmt.Fprintf(&b, "Total precipitation of %.1f mm is expected. ", stats.TotalRainfall)
	} else {
		b.WriteString("No precipitation is expected. ")
	}

	switch trend := Trend(stats.TempChange); trend {
	case "stable":
		b.WriteString("Temperatures stay broadly stable across the period.")
	default:
		fmt.Fprintf(&b, "A %s trend of %+.1f%% is expected from the first to the last day.", trend, stats.TempChange)
	}

	return b.String()
}
