// Package feature describes the labelled regressors that make up a forecast model: growth,
// changepoints, Fourier seasonality and holiday events.
package feature

type FeatureType string

const (
	FeatureTypeGrowth      FeatureType = "growth"
	FeatureTypeChangepoint FeatureType = "changepoint"
	FeatureTypeSeasonality FeatureType = "seasonality"
	FeatureTypeEvent       FeatureType = "event"
)

type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}
