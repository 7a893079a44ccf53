package forecast

import (
	"maps"
	"slices"
)

// Components is the additive decomposition of a prediction. Trend includes the intercept.
// Seasonality is keyed by the seasonality config name.
type Components struct {
	Trend       []float64            `json:"trend"`
	Seasonality map[string][]float64 `json:"seasonality"`
	Holidays    []float64            `json:"holidays"`
}

func newComponents(n int, seasNames []string, withHolidays bool) Components {
	comp := Components{
		Trend:       make([]float64, n),
		Seasonality: make(map[string][]float64, len(seasNames)),
	}
	for _, name := range seasNames {
		comp.Seasonality[name] = make([]float64, n)
	}
	if withHolidays {
		comp.Holidays = make([]float64, n)
	}
	return comp
}

// Total sums all of the components back into the prediction
func (c Components) Total() []float64 {
	res := make([]float64, len(c.Trend))
	copy(res, c.Trend)
	for _, name := range slices.Sorted(maps.Keys(c.Seasonality)) {
		for i, v := range c.Seasonality[name] {
			res[i] += v
		}
	}
	for i, v := range c.Holidays {
		res[i] += v
	}
	return res
}

// Copy returns a deep copy of the components
func (c Components) Copy() Components {
	res := Components{
		Trend:       copySlice(c.Trend),
		Seasonality: make(map[string][]float64, len(c.Seasonality)),
		Holidays:    copySlice(c.Holidays),
	}
	for name, seas := range c.Seasonality {
		res.Seasonality[name] = copySlice(seas)
	}
	return res
}

func copySlice(x []float64) []float64 {
	if x == nil {
		return nil
	}
	res := make([]float64, len(x))
	copy(res, x)
	return res
}
