package models

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultLambda     = 0.01
	DefaultIterations = 1000
	DefaultTolerance  = 1e-5
)

var (
	ErrNegativeLambda     = errors.New("negative lambda")
	ErrNegativeIterations = errors.New("negative iterations")
	ErrNegativeTolerance  = errors.New("negative tolerance")
)

// LassoOptions represents input options to run the Lasso Regression
type LassoOptions struct {
	// Lambda represents the L1 multiplier applied to standardized features, controlling the
	// regularization. Must be non-negative. 0.0 results in converging to Ordinary Least
	// Squares (OLS).
	Lambda float64

	// Iterations is the maximum number of times the fit loops through training all coefficients.
	Iterations int

	// Tolerance is the largest standardized coefficient change on an iteration before we stop
	// iterating.
	Tolerance float64
}

// Validate runs basic validation on Lasso options
func (l *LassoOptions) Validate() (*LassoOptions, error) {
	if l == nil {
		l = NewDefaultLassoOptions()
	}

	if l.Lambda < 0 {
		return nil, ErrNegativeLambda
	}
	if l.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if l.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	return l, nil
}

// NewDefaultLassoOptions returns a default set of Lasso Regression options
func NewDefaultLassoOptions() *LassoOptions {
	return &LassoOptions{
		Lambda:     DefaultLambda,
		Iterations: DefaultIterations,
		Tolerance:  DefaultTolerance,
	}
}

// LassoRegression computes the lasso regression using coordinate descent. Features and target
// are standardized before fitting so a single lambda behaves the same regardless of the units
// of the series. The intercept is always fit and never penalized.
type LassoRegression struct {
	opt *LassoOptions

	coef      []float64
	intercept float64
	trained   bool
}

var _ Model = (*LassoRegression)(nil)

// NewLassoRegression initializes a Lasso model ready for fitting
func NewLassoRegression(opt *LassoOptions) (*LassoRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &LassoRegression{
		opt: opt,
	}, nil
}

// Fit the model according to the given training data. x has one row per observation and one
// column per feature, y is a single column of observations.
func (l *LassoRegression) Fit(x, y mat.Matrix) error {
	if l.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}

	m, n := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}

	yArr := mat.Col(nil, 0, y)
	yMean, yStd := stat.PopMeanStdDev(yArr, nil)
	if yStd == 0 || math.IsNaN(yStd) {
		yStd = 1.0
	}

	// standardized target residual, starts at the centered target since all betas are 0
	residual := make([]float64, m)
	for i, v := range yArr {
		residual[i] = (v - yMean) / yStd
	}

	means := make([]float64, n)
	scales := make([]float64, n)
	zcols := make([][]float64, n)
	for j := 0; j < n; j++ {
		col := mat.Col(nil, j, x)
		mean, std := stat.PopMeanStdDev(col, nil)
		means[j] = mean
		scales[j] = std
		if std == 0 || math.IsNaN(std) {
			// constant columns are absorbed by the intercept
			continue
		}
		floats.AddConst(-mean, col)
		floats.Scale(1.0/std, col)
		zcols[j] = col
	}

	beta := make([]float64, n)
	invM := 1.0 / float64(m)
	converged := l.opt.Iterations == 0
	for iter := 0; iter < l.opt.Iterations; iter++ {
		maxUpdate := 0.0
		for j := 0; j < n; j++ {
			zj := zcols[j]
			if zj == nil {
				continue
			}
			betaCurr := beta[j]

			// standardized columns have a squared norm of m so the update needs no divisor
			rho := invM*floats.Dot(zj, residual) + betaCurr
			betaNext := SoftThreshold(rho, l.opt.Lambda)
			if betaNext == betaCurr {
				continue
			}
			floats.AddScaled(residual, betaCurr-betaNext, zj)
			beta[j] = betaNext
			maxUpdate = math.Max(maxUpdate, math.Abs(betaNext-betaCurr))
		}

		if maxUpdate < l.opt.Tolerance {
			converged = true
			break
		}
	}
	if !converged {
		slog.Warn("lasso regression did not converge", "iterations", l.opt.Iterations, "tolerance", l.opt.Tolerance)
	}

	l.coef = make([]float64, n)
	l.intercept = yMean
	for j := 0; j < n; j++ {
		if zcols[j] == nil {
			continue
		}
		l.coef[j] = yStd * beta[j] / scales[j]
		l.intercept -= l.coef[j] * means[j]
	}
	l.trained = true
	return nil
}

// Predict using the Lasso model
func (l *LassoRegression) Predict(x mat.Matrix) ([]float64, error) {
	if l.opt == nil {
		return nil, ErrNoOptions
	}
	if !l.trained {
		return nil, ErrUntrained
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}

	m, xn := x.Dims()
	if xn != len(l.coef) {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", xn, len(l.coef), ErrFeatureLenMismatch)
	}

	res := make([]float64, m)
	if xn > 0 {
		var resMx mat.VecDense
		resMx.MulVec(x, mat.NewVecDense(xn, l.Coef()))
		mat.Col(res, 0, &resMx)
	}
	floats.AddConst(l.intercept, res)
	return res, nil
}

// Score computes the coefficient of determination of the prediction
func (l *LassoRegression) Score(x, y mat.Matrix) (float64, error) {
	if l.opt == nil {
		return 0.0, ErrNoOptions
	}
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}

	m, _ := x.Dims()
	ym, _ := y.Dims()
	if m != ym {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	res, err := l.Predict(x)
	if err != nil {
		return 0.0, err
	}

	score := stat.RSquaredFrom(res, mat.Col(nil, 0, y), nil)
	if math.IsNaN(score) {
		score = 1.0
	}
	return score, nil
}

// Intercept returns the computed intercept
func (l *LassoRegression) Intercept() float64 {
	return l.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (l *LassoRegression) Coef() []float64 {
	c := make([]float64, len(l.coef))
	copy(c, l.coef)
	return c
}

// SoftThreshold returns 0.0 if the value is less than or equal to the gamma input
func SoftThreshold(x, gamma float64) float64 {
	res := math.Max(0, math.Abs(x)-gamma)
	if math.Signbit(x) {
		return -res
	}
	return res
}
