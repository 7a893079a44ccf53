package forecaster

import (
	"github.com/aouyang1/go-salesforecast/forecast"
	"github.com/aouyang1/go-salesforecast/timedataset"
)

// Model is a serializeable summary of a fit forecaster
type Model struct {
	Options       *Options              `json:"options"`
	Series        forecast.Model        `json:"series_model"`
	Frequency     timedataset.Frequency `json:"frequency"`
	ResidualStd   float64               `json:"residual_std"`
	IntervalScore float64               `json:"interval_zscore"`
}
