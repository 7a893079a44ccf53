package forecaster

import (
	"time"

	"github.com/aouyang1/go-salesforecast/forecast"
)

// Results holds the point forecast and its interval for each requested time point along with
// the component breakdown. All slices are aligned with T.
type Results struct {
	T          []time.Time         `json:"time"`
	Forecast   []float64           `json:"forecast"`
	Upper      []float64           `json:"upper"`
	Lower      []float64           `json:"lower"`
	Components forecast.Components `json:"components"`
}

// Len returns the number of time points in the results
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.T)
}
