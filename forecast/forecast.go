package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-salesforecast/feature"
	"github.com/aouyang1/go-salesforecast/models"
	"github.com/aouyang1/go-salesforecast/timedataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrUninitializedForecast    = errors.New("uninitialized forecast")
	ErrInsufficientTrainingData = errors.New("insufficient training data after removing Nans")
	ErrNoModelCoefficients      = errors.New("no model coefficients from fit")
	ErrUntrainedForecast        = errors.New("forecast has not been trained yet")
	ErrNonPositivePeriod        = errors.New("seasonality period must be positive")
)

// Forecast represents a single forecast model of a time series. This is a linear model using
// coordinate descent to calculate the weights. This will decompose the series into an intercept,
// trend components (based on changepoint times), seasonal components and holidays.
type Forecast struct {
	opt    *Options
	scores *Scores // score calculations after training

	// model coefficients
	fLabels *feature.Labels

	trainStart   time.Time
	trainEnd     time.Time
	changepoints []time.Time

	residual        []float64
	trainComponents Components

	coef      []float64
	intercept float64
	trained   bool
}

// New creates a new forecast instance with the given options. If none are provided, a default
// is used
func New(opt *Options) (*Forecast, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &Forecast{opt: opt}, nil
}

// Fit takes the input training data and fits a forecast model for possible changepoints,
// seasonal components, holidays and intercept. Observations may be unordered and repeat a
// time point. NaN observations are ignored for fitting.
func (f *Forecast) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return ErrUninitializedForecast
	}

	trainingData, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return err
	}

	trainingT := make([]time.Time, 0, len(trainingData.T))
	trainingY := make([]float64, 0, len(trainingData.Y))
	for i := 0; i < len(trainingData.T); i++ {
		if math.IsNaN(trainingData.Y[i]) {
			continue
		}
		trainingT = append(trainingT, trainingData.T[i])
		trainingY = append(trainingY, trainingData.Y[i])
	}

	uniqueT := timedataset.TimeSlice(trainingT).Unique()
	if len(uniqueT) < 2 {
		return fmt.Errorf("found %d distinct time points, %w", len(uniqueT), ErrInsufficientTrainingData)
	}

	f.trained = false
	f.trainStart = uniqueT.StartTime()
	f.trainEnd = uniqueT.EndTime()
	f.changepoints = f.opt.ChangepointOptions.Generate(uniqueT)

	x, err := f.generateFeatures(trainingT)
	if err != nil {
		return err
	}
	f.fLabels = x.Labels()

	model, err := models.NewLassoRegression(&models.LassoOptions{
		Lambda:     f.opt.Regularization,
		Iterations: f.opt.Iterations,
		Tolerance:  f.opt.Tolerance,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize lasso regression, %w", err)
	}
	yMx := mat.NewDense(len(trainingY), 1, trainingY)
	if err := model.Fit(x.Matrix(), yMx); err != nil {
		return fmt.Errorf("unable to fit lasso regression, %w", err)
	}
	f.coef = model.Coef()
	f.intercept = model.Intercept()
	f.trained = true

	// use input training to include NaNs
	predicted, comp, err := f.Predict(trainingData.T)
	if err != nil {
		return err
	}
	f.trainComponents = comp

	scores, err := NewScores(predicted, trainingData.Y)
	if err != nil {
		return err
	}
	f.scores = scores

	residual := make([]float64, len(trainingData.T))
	floats.SubTo(residual, trainingData.Y, predicted)
	f.residual = residual

	return nil
}

// Predict takes a slice of times in any order and produces the predicted value for those
// times given a pre-trained model along with the component breakdown.
func (f *Forecast) Predict(t []time.Time) ([]float64, Components, error) {
	if f == nil {
		return nil, Components{}, ErrUninitializedForecast
	}
	if !f.trained {
		return nil, Components{}, ErrUntrainedForecast
	}

	x, err := f.generateFeatures(t)
	if err != nil {
		return nil, Components{}, err
	}

	comp := newComponents(len(t), f.SeasonalityNames(), len(f.opt.Holidays) > 0)
	floats.AddConst(f.intercept, comp.Trend)
	for _, label := range x.Labels().Labels() {
		idx, exists := f.fLabels.Index(label)
		if !exists {
			return nil, Components{}, fmt.Errorf("feature %s not found in model, %w", label, models.ErrFeatureLenMismatch)
		}
		w := f.coef[idx]
		if w == 0 {
			continue
		}
		data, _ := x.Get(label)

		switch label.Type() {
		case feature.FeatureTypeGrowth, feature.FeatureTypeChangepoint:
			floats.AddScaled(comp.Trend, w, data)
		case feature.FeatureTypeSeasonality:
			name, _ := label.Get("name")
			floats.AddScaled(comp.Seasonality[name], w, data)
		case feature.FeatureTypeEvent:
			floats.AddScaled(comp.Holidays, w, data)
		}
	}

	return comp.Total(), comp, nil
}

// SeasonalityNames returns the names of the modelled seasonalities in configuration order
func (f *Forecast) SeasonalityNames() []string {
	if f == nil || f.opt == nil {
		return nil
	}
	names := make([]string, 0, len(f.opt.SeasonalityConfigs))
	for _, cfg := range f.opt.SeasonalityConfigs {
		if cfg.Orders == 0 {
			continue
		}
		names = append(names, cfg.Name)
	}
	return names
}

// HasHolidays reports whether holiday effects are modelled
func (f *Forecast) HasHolidays() bool {
	if f == nil || f.opt == nil {
		return false
	}
	return len(f.opt.Holidays) > 0
}

// FeatureLabels returns the slice of feature labels in the order of the coefficients
func (f *Forecast) FeatureLabels() []feature.Feature {
	if f == nil {
		return nil
	}
	return f.fLabels.Labels()
}

// Coefficients returns a forecast model map of coefficients keyed by the string
// representation of each feature label
func (f *Forecast) Coefficients() (map[string]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}

	labels := f.fLabels.Labels()
	if len(labels) == 0 || len(f.coef) == 0 {
		return nil, ErrNoModelCoefficients
	}
	coef := make(map[string]float64)
	for i := 0; i < len(f.coef); i++ {
		coef[labels[i].String()] = f.coef[i]
	}
	return coef, nil
}

// Intercept returns the intercept of the forecast model
func (f *Forecast) Intercept() float64 {
	if f == nil {
		return 0
	}
	return f.intercept
}

// Changepoints returns the changepoint times chosen at fit time
func (f *Forecast) Changepoints() []time.Time {
	if f == nil {
		return nil
	}
	res := make([]time.Time, len(f.changepoints))
	copy(res, f.changepoints)
	return res
}

// TrainEnd returns the last distinct time point used for training
func (f *Forecast) TrainEnd() time.Time {
	if f == nil {
		return time.Time{}
	}
	return f.trainEnd
}

// Model returns the serializeable format of the forecast model composing of the
// forecast options, intercept, coefficients with their feature labels, and the
// model fit scores
func (f *Forecast) Model() (Model, error) {
	if f == nil {
		return Model{}, ErrUninitializedForecast
	}
	if !f.trained {
		return Model{}, ErrUntrainedForecast
	}

	labels := f.fLabels.Labels()
	fws := make([]FeatureWeight, 0, len(f.coef))
	for i, c := range f.coef {
		fws = append(fws, NewFeatureWeight(labels[i], c))
	}
	return Model{
		TrainStartTime: f.trainStart,
		TrainEndTime:   f.trainEnd,
		Options:        f.opt,
		Holidays:       f.opt.HolidayNames(),
		Scores:         f.scores,
		Weights: Weights{
			Intercept: f.intercept,
			Coef:      fws,
		},
	}, nil
}

// ModelEq returns a string representation of the model linear equation in the format of
// y ~ b + m1x1 + m2x2 + ...
func (f *Forecast) ModelEq() (string, error) {
	if f == nil {
		return "", ErrUninitializedForecast
	}

	coef, err := f.Coefficients()
	if err != nil {
		return "", err
	}

	eq := fmt.Sprintf("y ~ %.2f", f.Intercept())
	for _, label := range f.fLabels.Labels() {
		w := coef[label.String()]
		if w == 0 {
			continue
		}
		eq += fmt.Sprintf("%+.2f*%s", w, label)
	}
	return eq, nil
}

// Scores returns the fit scores for evaluating how well the resulting model
// fit the training data
func (f *Forecast) Scores() Scores {
	if f == nil || f.scores == nil {
		return Scores{}
	}
	return *f.scores
}

// Residuals returns a slice of values representing the difference between the
// training data and the fit data in time order. Entries are NaN where the observation was NaN.
func (f *Forecast) Residuals() []float64 {
	if f == nil {
		return nil
	}
	return copySlice(f.residual)
}

// TrendComponent represents the overall trend component of the model over the training data
// which is determined by the intercept, growth and changepoints.
func (f *Forecast) TrendComponent() []float64 {
	if f == nil {
		return nil
	}
	return copySlice(f.trainComponents.Trend)
}

// TrainComponents returns the component breakdown over the training data
func (f *Forecast) TrainComponents() Components {
	if f == nil {
		return Components{}
	}
	return f.trainComponents.Copy()
}
