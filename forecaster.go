// Package forecaster fits an additive trend, seasonality and holiday model to a univariate
// series and produces forecasts with an uncertainty interval.
package forecaster

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-salesforecast/forecast"
	"github.com/aouyang1/go-salesforecast/timedataset"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrNegativeHorizon = errors.New("horizon must be non-negative")
	ErrUntrained       = errors.New("forecaster has not been fit")
)

// Forecaster fits a forecast model and can be used to generate forecasts
type Forecaster struct {
	opt *Options

	seriesForecast *forecast.Forecast

	fitTrainingData *timedataset.TimeDataset
	fitResults      *Results
	history         timedataset.TimeSlice
	freq            timedataset.Frequency

	// uncertainty parameters
	residualStd float64
	zscore      float64
	nObs        int
	stepSec     float64
}

// New creates a new instance of a Forecaster using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	seriesForecast, err := forecast.New(opt.SeriesOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast series, %w", err)
	}

	return &Forecaster{
		opt:            opt,
		seriesForecast: seriesForecast,
		zscore:         distuv.UnitNormal.Quantile(0.5 + opt.IntervalWidth/2.0),
	}, nil
}

// Fit uses the input time and values to fit the forecast model. Time points may be unordered
// and repeated. NaN values are kept in the training data but ignored for fitting.
func (f *Forecaster) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return ErrUntrained
	}
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}

	if err := f.seriesForecast.Fit(td.T, td.Y); err != nil {
		return fmt.Errorf("unable to forecast series, %w", err)
	}

	f.history = timedataset.TimeSlice(td.T).Unique()
	freq, err := f.history.EstimateFreq()
	if err != nil {
		return fmt.Errorf("unable to infer frequency of training data, %w", err)
	}
	f.freq = freq
	f.fitUncertainty(f.seriesForecast.Residuals())
	f.fitTrainingData = td

	f.fitResults, err = f.Predict(td.T)
	if err != nil {
		f.fitTrainingData = nil
		return fmt.Errorf("unable to get predicted values from training set, %w", err)
	}
	return nil
}

// fitUncertainty estimates the residual spread and the typical step between training points,
// used to widen the interval the further a prediction is past the end of training
func (f *Forecaster) fitUncertainty(residual []float64) {
	valid := make([]float64, 0, len(residual))
	for _, r := range residual {
		if math.IsNaN(r) {
			continue
		}
		valid = append(valid, r)
	}
	f.nObs = len(valid)

	f.residualStd = 0
	if len(valid) > 1 {
		f.residualStd = stat.StdDev(valid, nil)
	}
	if math.IsNaN(f.residualStd) || math.IsInf(f.residualStd, 0) {
		f.residualStd = 0
	}

	span := f.history.EndTime().Sub(f.history.StartTime()).Seconds()
	f.stepSec = span / float64(len(f.history)-1)
}

// MakeFuture returns the distinct training time points followed by horizon time points past the
// end of training at the inferred frequency of the training data
func (f *Forecaster) MakeFuture(horizon int) ([]time.Time, error) {
	if horizon < 0 {
		return nil, fmt.Errorf("got %d, %w", horizon, ErrNegativeHorizon)
	}
	if f == nil || f.fitTrainingData == nil {
		return nil, ErrUntrained
	}

	future, err := f.history.Extend(horizon)
	if err != nil {
		return nil, fmt.Errorf("unable to extend training time points, %w", err)
	}

	res := make([]time.Time, 0, len(f.history)+len(future))
	res = append(res, f.history...)
	return append(res, future...), nil
}

// Predict takes in any set of time samples and generates a forecast, upper, lower values per time point
func (f *Forecaster) Predict(t []time.Time) (*Results, error) {
	if f == nil || f.seriesForecast == nil {
		return nil, ErrUntrained
	}
	seriesRes, seriesComp, err := f.seriesForecast.Predict(t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict series forecasts, %w", err)
	}

	trainEnd := f.history.EndTime()
	upper := make([]float64, len(seriesRes))
	lower := make([]float64, len(seriesRes))
	for i, yhat := range seriesRes {
		steps := 0.0
		if f.stepSec > 0 && t[i].After(trainEnd) {
			steps = t[i].Sub(trainEnd).Seconds() / f.stepSec
		}
		width := f.zscore * f.residualStd * math.Sqrt(1.0+steps/float64(f.nObs))
		upper[i] = yhat + width
		lower[i] = yhat - width
	}

	return &Results{
		T:          t,
		Forecast:   seriesRes,
		Upper:      upper,
		Lower:      lower,
		Components: seriesComp,
	}, nil
}

// Residuals returns the difference between the training data and the final series fit in time order
func (f *Forecaster) Residuals() []float64 {
	return f.seriesForecast.Residuals()
}

// TrendComponent returns the trend component created by changepoints after fitting
func (f *Forecaster) TrendComponent() []float64 {
	return f.seriesForecast.TrendComponent()
}

// SeasonalityNames returns the names of the fit seasonal components
func (f *Forecaster) SeasonalityNames() []string {
	return f.seriesForecast.SeasonalityNames()
}

// HasHolidays reports whether the fit models holiday effects
func (f *Forecaster) HasHolidays() bool {
	return f.seriesForecast.HasHolidays()
}

// SeriesIntercept returns the intercept of the series fit
func (f *Forecaster) SeriesIntercept() float64 {
	return f.seriesForecast.Intercept()
}

// SeriesCoefficients returns all coefficient weight associated with the component label string
func (f *Forecaster) SeriesCoefficients() (map[string]float64, error) {
	return f.seriesForecast.Coefficients()
}

// Scores returns the in-sample fit scores
func (f *Forecaster) Scores() forecast.Scores {
	return f.seriesForecast.Scores()
}

// Frequency returns the inferred step between training time points
func (f *Forecaster) Frequency() timedataset.Frequency {
	return f.freq
}

// Model generates a serializeable summary of the fit options, series model and interval parameters
func (f *Forecaster) Model() (Model, error) {
	seriesModel, err := f.seriesForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch series model, %w", err)
	}
	return Model{
		Options:       f.opt,
		Series:        seriesModel,
		Frequency:     f.freq,
		ResidualStd:   f.residualStd,
		IntervalScore: f.zscore,
	}, nil
}

// ModelEq returns a string representation of the fit series model represented as
// y ~ b + m1x1 + m2x2 ...
func (f *Forecaster) ModelEq() (string, error) {
	return f.seriesForecast.ModelEq()
}

// TrainingData returns the time sorted training data used to fit the current forecaster model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	if f.fitTrainingData == nil {
		return nil
	}
	return f.fitTrainingData.Copy()
}

// FitResults returns the results of the fit which includes the forecast, upper, and lower values
func (f *Forecaster) FitResults() *Results {
	return f.fitResults
}
