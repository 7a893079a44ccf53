// Package dashboard turns an uploaded table and the dashboard settings into a forecast and the
// chart specs drawn on the page.
package dashboard

import (
	"errors"
	"fmt"
	"time"

	forecaster "github.com/aouyang1/go-salesforecast"
	"github.com/aouyang1/go-salesforecast/forecast"
	"github.com/aouyang1/go-salesforecast/internal/settings"
	"github.com/aouyang1/go-salesforecast/internal/upload"
	"github.com/rickar/cal/v2"
)

const DefaultPreviewRows = 5

var ErrNoData = errors.New("no observations to forecast")

// Options are the server wide knobs of the forecast that are not exposed as dashboard controls
type Options struct {
	IntervalWidth float64
	Changepoints  int
	Holidays      []*cal.Holiday
	PreviewRows   int
}

// NewDefaultOptions returns an 80% interval, automatic changepoints and no holidays
func NewDefaultOptions() *Options {
	return &Options{
		IntervalWidth: forecaster.DefaultIntervalWidth,
		Changepoints:  forecast.DefaultNumChangepoints,
		PreviewRows:   DefaultPreviewRows,
	}
}

// Row is a single forecast table row
type Row struct {
	DS        time.Time `json:"ds"`
	YHat      float64   `json:"yhat"`
	YHatLower float64   `json:"yhat_lower"`
	YHatUpper float64   `json:"yhat_upper"`
}

// Result is everything the page needs to render a forecast
type Result struct {
	Settings   settings.Settings `json:"settings"`
	Columns    []string          `json:"columns"`
	Preview    [][]string        `json:"preview"`
	DateLayout string            `json:"date_layout"`
	Frequency  string            `json:"frequency"`

	// Rows cover every distinct history time point followed by the horizon. Tail is the last
	// horizon rows.
	Rows []Row `json:"rows"`
	Tail []Row `json:"tail"`

	Overlay    ChartSpec   `json:"overlay"`
	Components []ChartSpec `json:"components"`

	Scores  forecast.Scores  `json:"scores"`
	ModelEq string           `json:"model_eq"`
	Model   forecaster.Model `json:"model"`
}

// seriesOptions maps the dashboard settings onto the forecast model options
func (o *Options) seriesOptions(s settings.Settings) *forecaster.Options {
	seriesOpt := forecast.NewDefaultOptions()
	seriesOpt.SeasonalityConfigs = forecast.SeasonalityConfigsFor(s.Yearly, s.Weekly)
	seriesOpt.ChangepointOptions.N = o.Changepoints
	seriesOpt.Holidays = o.Holidays

	return &forecaster.Options{
		SeriesOptions: seriesOpt,
		IntervalWidth: o.IntervalWidth,
	}
}

// Run fits the uploaded observations with the given settings, extends the history by the
// horizon and builds the overlay and component charts along with the forecast table. The same
// inputs always produce the same result.
func Run(tbl *upload.Table, s settings.Settings, opt *Options) (*Result, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if tbl.Len() == 0 {
		return nil, ErrNoData
	}

	s = s.Clamp()
	if err := s.Validate(); err != nil {
		return nil, err
	}

	f, err := forecaster.New(opt.seriesOptions(s))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecaster, %w", err)
	}
	if err := f.Fit(tbl.T, tbl.Y); err != nil {
		return nil, fmt.Errorf("unable to fit forecast, %w", err)
	}

	future, err := f.MakeFuture(s.Horizon)
	if err != nil {
		return nil, fmt.Errorf("unable to extend history, %w", err)
	}
	res, err := f.Predict(future)
	if err != nil {
		return nil, fmt.Errorf("unable to predict forecast, %w", err)
	}

	eq, err := f.ModelEq()
	if err != nil {
		return nil, fmt.Errorf("unable to describe model, %w", err)
	}
	model, err := f.Model()
	if err != nil {
		return nil, fmt.Errorf("unable to describe model, %w", err)
	}

	rows := make([]Row, res.Len())
	for i, tPnt := range res.T {
		rows[i] = Row{
			DS:        tPnt,
			YHat:      res.Forecast[i],
			YHatLower: res.Lower[i],
			YHatUpper: res.Upper[i],
		}
	}
	nHistory := len(rows) - s.Horizon
	layout := dateLayout(res.T)

	return &Result{
		Settings:   s,
		Columns:    tbl.Header,
		Preview:    tbl.Head(opt.PreviewRows),
		DateLayout: layout,
		Frequency:  f.Frequency().String(),
		Rows:       rows,
		Tail:       rows[nHistory:],
		Overlay:    overlayChart(res, nHistory, tbl.T, tbl.Y, layout),
		Components: componentCharts(res, f.SeasonalityNames(), f.HasHolidays(), layout),
		Scores:     f.Scores(),
		ModelEq:    eq,
		Model:      model,
	}, nil
}
