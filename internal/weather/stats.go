package weather

import (
	"math"
	"math/big"
	"time"
)

// maxRoundable is where one-decimal rounding stops changing a float64.
const maxRoundable = 1e15

// Round1 rounds to one decimal place using the exact binary value of v, so
// 21.45 (stored as 21.4499...) gives 21.4. Exact ties round away from zero.
func Round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= maxRoundable {
		return v
	}

	x := new(big.Float).SetPrec(128).SetFloat64(math.Abs(v))
	x.Mul(x, big.NewFloat(10))
	n, _ := x.Int64()
	frac := new(big.Float).SetPrec(128).Sub(x, new(big.Float).SetInt64(n))
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Copysign(float64(n)/10, v)
}

// DayLabel returns the short English weekday ("Mon") for an ISO date.
func DayLabel(date string) (string, error) {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return "", err
	}
	return t.Format("Mon"), nil
}

// DeriveStats computes averages, totals and first-to-last percent changes.
// It never fails: an empty series yields the zero value and undefined
// changes are reported as 0.
func DeriveStats(series ForecastSeries) SummaryStats {
	if len(series) == 0 {
		return SummaryStats{}
	}

	var sumTemp, sumHumidity, sumWind, sumRain float64
	for _, d := range series {
		sumTemp += d.Temp
		sumHumidity += d.Humidity
		sumWind += d.Wind
		sumRain += d.Rainfall
	}
	n := float64(len(series))

	first, last := series[0], series[len(series)-1]
	multi := len(series) > 1

	return SummaryStats{
		AvgTemp:        finite(Round1(sumTemp / n)),
		AvgHumidity:    finite(Round1(sumHumidity / n)),
		AvgWind:        finite(Round1(sumWind / n)),
		TotalRainfall:  finite(Round1(sumRain)),
		TempChange:     change(multi, first.Temp, last.Temp),
		HumidityChange: change(multi, first.Humidity, last.Humidity),
		WindChange:     change(multi, first.Wind, last.Wind),
		RainfallChange: change(multi, first.Rainfall, last.Rainfall),
	}
}

// PercentChange is (to-from)/from*100 rounded to one decimal, or 0 when from is 0.
func PercentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return finite(Round1((to - from) / from * 100))
}

func change(multi bool, from, to float64) float64 {
	if !multi {
		return 0
	}
	return PercentChange(from, to)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
