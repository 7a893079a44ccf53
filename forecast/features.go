package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-salesforecast/feature"
	"github.com/rickar/cal/v2"
)

const changepointLabelLayout = "2006-01-02T15:04:05"

// generateFeatures builds the design features for the given times using the training window and
// changepoints fixed at fit time. The feature labels and their order only depend on the options
// and the changepoints so the same set is produced for training and inference.
func (f *Forecast) generateFeatures(t []time.Time) (*feature.Set, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}

	set := feature.NewSet()
	tScaled := f.scaleTime(t)
	if err := set.Set(feature.Linear(), tScaled); err != nil {
		return nil, err
	}

	for _, chpt := range f.changepoints {
		data := changepointFeature(tScaled, f.scaleTime([]time.Time{chpt})[0])
		if err := set.Set(feature.NewChangepoint(chpt.Format(changepointLabelLayout)), data); err != nil {
			return nil, err
		}
	}

	for _, seasCfg := range f.opt.SeasonalityConfigs {
		if err := addFourierFeatures(set, t, seasCfg); err != nil {
			return nil, fmt.Errorf("unable to generate %s seasonality features, %w", seasCfg.Name, err)
		}
	}

	for _, hol := range f.opt.Holidays {
		if err := set.Set(feature.NewEvent(holidayName(hol)), holidayFeature(t, hol)); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// scaleTime maps the training window onto [0, 1]. Times outside of the window extrapolate
// linearly.
func (f *Forecast) scaleTime(t []time.Time) []float64 {
	span := f.trainEnd.Sub(f.trainStart).Seconds()
	res := make([]float64, len(t))
	for i, tPnt := range t {
		res[i] = tPnt.Sub(f.trainStart).Seconds() / span
	}
	return res
}

func changepointFeature(tScaled []float64, chptScaled float64) []float64 {
	res := make([]float64, len(tScaled))
	for i, v := range tScaled {
		res[i] = math.Max(0, v-chptScaled)
	}
	return res
}

// addFourierFeatures adds a sine and cosine feature per order of the seasonality config. Phase
// is measured from the unix epoch so the terms do not depend on the training window.
func addFourierFeatures(set *feature.Set, t []time.Time, cfg SeasonalityConfig) error {
	if cfg.Orders == 0 {
		return nil
	}
	periodSec := cfg.Period.Seconds()
	if periodSec <= 0 {
		return ErrNonPositivePeriod
	}

	epochSec := make([]float64, len(t))
	for i, tPnt := range t {
		epochSec[i] = float64(tPnt.UnixNano()) / 1e9
	}

	for order := 1; order <= cfg.Orders; order++ {
		sinData := make([]float64, len(t))
		cosData := make([]float64, len(t))
		omega := 2.0 * math.Pi * float64(order) / periodSec
		for i, sec := range epochSec {
			sinData[i] = math.Sin(omega * sec)
			cosData[i] = math.Cos(omega * sec)
		}
		if err := set.Set(feature.NewSeasonality(cfg.Name, feature.FourierCompSin, order), sinData); err != nil {
			return err
		}
		if err := set.Set(feature.NewSeasonality(cfg.Name, feature.FourierCompCos, order), cosData); err != nil {
			return err
		}
	}
	return nil
}

type calendarDay struct {
	year  int
	month time.Month
	day   int
}

func dayOf(tPnt time.Time) calendarDay {
	y, m, d := tPnt.Date()
	return calendarDay{y, m, d}
}

// holidayFeature is 1 on the calendar day the holiday is observed and 0 otherwise
func holidayFeature(t []time.Time, hol *cal.Holiday) []float64 {
	res := make([]float64, len(t))
	observed := make(map[int]calendarDay)
	for i, tPnt := range t {
		year := tPnt.Year()
		day, exists := observed[year]
		if !exists {
			_, obs := hol.Calc(year)
			day = dayOf(obs)
			observed[year] = day
		}
		if dayOf(tPnt) == day {
			res[i] = 1.0
		}
	}
	return res
}
