package forecast

import (
	"strings"
	"time"

	"github.com/aouyang1/go-salesforecast/models"
	"github.com/rickar/cal/v2"
)

const (
	LabelSeasYearly = "yearly"
	LabelSeasWeekly = "weekly"

	DefaultYearlyOrders = 10
	DefaultWeeklyOrders = 3

	DefaultNumChangepoints  = 25
	DefaultChangepointRange = 0.8
)

// Options configures the components of a forecast model
type Options struct {
	SeasonalityConfigs []SeasonalityConfig `json:"seasonality_configs"`
	ChangepointOptions ChangepointOptions  `json:"changepoint_options"`

	// Holidays are modelled as one indicator feature per holiday on its observed date
	Holidays []*cal.Holiday `json:"-"`

	Regularization float64 `json:"regularization"`
	Iterations     int     `json:"iterations"`
	Tolerance      float64 `json:"tolerance"`
}

// NewDefaultOptions generates options fitting yearly and weekly seasonality with automatic
// changepoints and no holidays
func NewDefaultOptions() *Options {
	return &Options{
		SeasonalityConfigs: SeasonalityConfigsFor(true, true),
		ChangepointOptions: NewDefaultChangepointOptions(),
		Regularization:     models.DefaultLambda,
		Iterations:         models.DefaultIterations,
		Tolerance:          models.DefaultTolerance,
	}
}

// HolidayNames returns the feature names of the configured holidays
func (o *Options) HolidayNames() []string {
	if o == nil {
		return nil
	}
	names := make([]string, 0, len(o.Holidays))
	for _, hol := range o.Holidays {
		names = append(names, holidayName(hol))
	}
	return names
}

func holidayName(hol *cal.Holiday) string {
	return strings.ReplaceAll(hol.Name, " ", "_")
}

// SeasonalityConfig represents a single seasonality configuration to model. This will generate
// Fourier series of the specified period and number of orders. E.g. a period of 7 days
// with 3 orders will create 6 Fourier series of order 1, 2, 3 and for the sine/cosine components
// where order 1 will have a period of 7 days and order 2 will have a period of 3.5 days.
type SeasonalityConfig struct {
	Name   string        `json:"name"`
	Orders int           `json:"orders"`
	Period time.Duration `json:"period"`
}

// NewSeasonalityConfig creates a new seasonality config given a name, period and orders
func NewSeasonalityConfig(name string, period time.Duration, orders int) SeasonalityConfig {
	if orders < 0 {
		orders = 0
	}

	return SeasonalityConfig{
		Name:   name,
		Orders: orders,
		Period: period,
	}
}

// NewYearlySeasonalityConfig creates a yearly seasonality config of 365.25 days
func NewYearlySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasYearly, time.Duration(365.25*24*float64(time.Hour)), orders)
}

// NewWeeklySeasonalityConfig creates a weekly seasonality config given a specified number of orders
func NewWeeklySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasWeekly, 7*24*time.Hour, orders)
}

// SeasonalityConfigsFor returns the default yearly and weekly configs for the enabled toggles
func SeasonalityConfigsFor(yearly, weekly bool) []SeasonalityConfig {
	var cfgs []SeasonalityConfig
	if yearly {
		cfgs = append(cfgs, NewYearlySeasonalityConfig(DefaultYearlyOrders))
	}
	if weekly {
		cfgs = append(cfgs, NewWeeklySeasonalityConfig(DefaultWeeklyOrders))
	}
	return cfgs
}

// ChangepointOptions places up to N changepoints evenly across the first Range fraction of
// the training history. The slope change at each changepoint is regularized so only the
// relevant ones remain.
type ChangepointOptions struct {
	N     int     `json:"n"`
	Range float64 `json:"range"`
}

// NewDefaultChangepointOptions generates a set of default changepoint options
func NewDefaultChangepointOptions() ChangepointOptions {
	return ChangepointOptions{
		N:     DefaultNumChangepoints,
		Range: DefaultChangepointRange,
	}
}

// Generate returns the changepoint times for an ascending slice of distinct training times
func (c ChangepointOptions) Generate(t []time.Time) []time.Time {
	if c.N <= 0 || c.Range <= 0 {
		return nil
	}
	rng := c.Range
	if rng > 1 {
		rng = 1
	}

	histSize := int(float64(len(t)) * rng)
	n := c.N
	if histSize-1 < n {
		n = histSize - 1
	}
	if n <= 0 {
		return nil
	}

	// evenly spaced indices over the history excluding the first point
	chpts := make([]time.Time, 0, n)
	step := float64(histSize-1) / float64(n)
	for i := 1; i <= n; i++ {
		idx := int(float64(i)*step + 0.5)
		chpts = append(chpts, t[idx])
	}
	return chpts
}
