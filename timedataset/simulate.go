package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateT returns n time points spaced by interval beginning at start
func GenerateT(n int, interval time.Duration, start time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = append(t, start.Add(interval*time.Duration(i)))
	}
	return t
}

// GenerateMonthlyT returns n time points one calendar month apart beginning at start
func GenerateMonthlyT(n int, start time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = append(t, start.AddDate(0, i, 0))
	}
	return t
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func (s Series) MaskWithWeekend(t []time.Time) Series {
	n := len(s)
	for i := 0; i < n; i++ {
		switch t[i].Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			s[i] = 0.0
		}
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = val
	}
	return Series(y)
}

// GenerateLinearY generates a line with the given slope per day starting at zero on t[0]
func GenerateLinearY(t []time.Time, slopePerDay float64) Series {
	y := make([]float64, len(t))
	if len(t) == 0 {
		return Series(y)
	}
	for i := range t {
		y[i] = slopePerDay * t[i].Sub(t[0]).Hours() / 24.0
	}
	return Series(y)
}

func GenerateWaveY(t []time.Time, amp, periodSec, order, timeOffset float64) Series {
	n := len(t)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi*order/periodSec*(float64(t[i].Unix())+timeOffset))
		y = append(y, val)
	}
	return Series(y)
}

// GenerateNoise produces gaussian noise with the given scale. The same seed always
// yields the same noise.
func GenerateNoise(n int, noiseScale float64, seed uint64) Series {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, rng.NormFloat64()*noiseScale)
	}
	return Series(y)
}

// GenerateSales builds a daily sales series with an upward trend, yearly and weekly
// seasonality, a weekend lift and noise.
func GenerateSales(days int, start time.Time, seed uint64) ([]time.Time, Series) {
	t := GenerateT(days, 24*time.Hour, start)
	yearSec := 365.25 * 86400.0
	weekSec := 7.0 * 86400.0

	y := make(Series, days)
	y.Add(GenerateConstY(days, 200.0)).
		Add(GenerateLinearY(t, 0.15)).
		Add(GenerateWaveY(t, 35.0, yearSec, 1.0, 0.0)).
		Add(GenerateWaveY(t, 12.0, weekSec, 1.0, 0.0)).
		Add(GenerateConstY(days, 18.0).MaskWithWeekend(t)).
		Add(GenerateNoise(days, 6.0, seed))
	return t, y
}
