package weather

// Plausibility flags for a daily record. Flagged records are still served;
// the flags are logged and counted so odd upstream data is visible.
const (
	FlagTempOutOfRange    = "temp_out_of_range"
	FlagTempBoundsSwapped = "temp_bounds_swapped"
	FlagHumidityInvalid   = "humidity_invalid"
	FlagWindNegative      = "wind_negative"
	FlagWindUnlikely      = "wind_unlikely"
	FlagRainNegative      = "rain_negative"
)

// QualityFlags checks d against physical limits and returns the flags it trips.
func QualityFlags(d DailyRecord) []string {
	var flags []string

	for _, t := range []float64{d.Temp, d.TempMin, d.TempMax} {
		if t < -90 || t > 60 {
			flags = append(flags, FlagTempOutOfRange)
			break
		}
	}
	if d.TempMin > d.TempMax {
		flags = append(flags, FlagTempBoundsSwapped)
	}

	if d.Humidity < 0 || d.Humidity > 100 {
		flags = append(flags, FlagHumidityInvalid)
	}

	switch {
	case d.Wind < 0:
		flags = append(flags, FlagWindNegative)
	case d.Wind > 400:
		flags = append(flags, FlagWindUnlikely)
	}

	if d.Rainfall < 0 {
		flags = append(flags, FlagRainNegative)
	}

	return flags
}
