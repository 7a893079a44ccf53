package forecaster

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-salesforecast/forecast"
)

const DefaultIntervalWidth = 0.8

var ErrInvalidIntervalWidth = errors.New("interval width must be between 0 and 1 exclusive")

// Options configures the series model and the width of the uncertainty interval around it
type Options struct {
	SeriesOptions *forecast.Options `json:"series_options"`

	// IntervalWidth is the probability mass covered by the lower and upper bounds, e.g. 0.8
	// produces the 10th and 90th percentiles
	IntervalWidth float64 `json:"interval_width"`
}

// NewDefaultOptions returns the default series options with an 80% interval
func NewDefaultOptions() *Options {
	return &Options{
		SeriesOptions: forecast.NewDefaultOptions(),
		IntervalWidth: DefaultIntervalWidth,
	}
}

// Validate fills in missing series options and checks the interval width
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if o.SeriesOptions == nil {
		o.SeriesOptions = forecast.NewDefaultOptions()
	}
	if o.IntervalWidth <= 0 || o.IntervalWidth >= 1 {
		return nil, fmt.Errorf("got %.3f, %w", o.IntervalWidth, ErrInvalidIntervalWidth)
	}
	return o, nil
}
