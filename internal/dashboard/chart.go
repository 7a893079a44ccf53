package dashboard

import (
	"math"
	"strconv"
	"time"

	forecaster "github.com/aouyang1/go-salesforecast"
	"github.com/aouyang1/go-salesforecast/forecast"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"

	SeriesActual    = "Actual"
	SeriesForecast  = "Forecast"
	SeriesInterval  = "Confidence Interval"
	seriesBandLower = "Lower Bound"

	colorActual   = "#2c3e50"
	colorForecast = "#27ae60"
	colorBand     = "rgba(46, 204, 113, 0.3)"
	colorNone     = "transparent"

	bandStack = "confidence"
)

// Role describes how a series is drawn
type Role string

const (
	// RoleLine is a plain line
	RoleLine Role = "line"

	// RoleBandBase is an invisible series the band is stacked on. Its values are the lower bound.
	RoleBandBase Role = "band-base"

	// RoleBand is a shaded area stacked on the band base. Its values are the band width.
	RoleBand Role = "band"
)

// Values are the points of a series. NaN values are gaps and encode as null.
type Values []float64

func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(v)*8)
	buf = append(buf, '[')
	for i, val := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, val, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

// SeriesSpec is a named series aligned with the chart x axis
type SeriesSpec struct {
	Name   string `json:"name"`
	Values Values `json:"values"`
	Role   Role   `json:"role"`
	Color  string `json:"color,omitempty"`
}

// ChartSpec is a renderer independent description of a line chart over a category x axis
type ChartSpec struct {
	Title  string       `json:"title"`
	XLabel string       `json:"x_label"`
	YLabel string       `json:"y_label"`
	X      []string     `json:"x"`
	Series []SeriesSpec `json:"series"`
}

// Legend returns the names of the series shown in the legend in drawing order. The band base
// is an implementation detail of the shaded band and is left out.
func (c ChartSpec) Legend() []string {
	legend := make([]string, 0, len(c.Series))
	for _, s := range c.Series {
		if s.Role == RoleBandBase {
			continue
		}
		legend = append(legend, s.Name)
	}
	return legend
}

// dateLayout drops the clock from the tick labels unless a time point falls inside a day
func dateLayout(t []time.Time) string {
	for _, tPnt := range t {
		if tPnt.Hour() != 0 || tPnt.Minute() != 0 || tPnt.Second() != 0 || tPnt.Nanosecond() != 0 {
			return DateTimeLayout
		}
	}
	return DateLayout
}

func formatTimes(t []time.Time, layout string) []string {
	res := make([]string, len(t))
	for i, tPnt := range t {
		res[i] = tPnt.Format(layout)
	}
	return res
}

// meanByTime averages the non NaN observations of every distinct time point in history. Time
// points with no usable observation are NaN.
func meanByTime(history []time.Time, t []time.Time, y []float64) []float64 {
	type acc struct {
		sum float64
		cnt int
	}
	sums := make(map[int64]*acc, len(history))
	for i, tPnt := range t {
		if math.IsNaN(y[i]) {
			continue
		}
		key := tPnt.UnixNano()
		a, exists := sums[key]
		if !exists {
			a = &acc{}
			sums[key] = a
		}
		a.sum += y[i]
		a.cnt++
	}

	res := make([]float64, len(history))
	for i, tPnt := range history {
		a, exists := sums[tPnt.UnixNano()]
		if !exists {
			res[i] = math.NaN()
			continue
		}
		res[i] = a.sum / float64(a.cnt)
	}
	return res
}

func nanSlice(n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = math.NaN()
	}
	return res
}

// overlayChart plots the observed history against the forecast past the end of history along
// with the interval shaded between the lower and upper bounds
func overlayChart(res *forecaster.Results, nHistory int, t []time.Time, y []float64, layout string) ChartSpec {
	n := res.Len()
	actual := nanSlice(n)
	copy(actual, meanByTime(res.T[:nHistory], t, y))

	yhat := nanSlice(n)
	lower := nanSlice(n)
	width := nanSlice(n)
	for i := nHistory; i < n; i++ {
		yhat[i] = res.Forecast[i]
		lower[i] = res.Lower[i]
		width[i] = res.Upper[i] - res.Lower[i]
	}

	return ChartSpec{
		Title:  "Sales Forecast",
		XLabel: "Date",
		YLabel: "Sales",
		X:      formatTimes(res.T, layout),
		Series: []SeriesSpec{
			{Name: SeriesActual, Values: actual, Role: RoleLine, Color: colorActual},
			{Name: SeriesForecast, Values: yhat, Role: RoleLine, Color: colorForecast},
			{Name: seriesBandLower, Values: lower, Role: RoleBandBase, Color: colorNone},
			{Name: SeriesInterval, Values: width, Role: RoleBand, Color: colorBand},
		},
	}
}

// componentCharts builds one chart per model component over the full timeline in the order
// trend, seasonalities, holidays
func componentCharts(res *forecaster.Results, seasNames []string, holidays bool, layout string) []ChartSpec {
	x := formatTimes(res.T, layout)
	component := func(title, name string, values []float64) ChartSpec {
		return ChartSpec{
			Title:  title,
			XLabel: "Date",
			YLabel: name,
			X:      x,
			Series: []SeriesSpec{{Name: name, Values: values, Role: RoleLine, Color: colorForecast}},
		}
	}

	specs := []ChartSpec{component("Trend", "trend", res.Components.Trend)}
	for _, name := range seasNames {
		specs = append(specs, component(componentTitle(name), name, res.Components.Seasonality[name]))
	}
	if holidays {
		specs = append(specs, component("Holidays", "holidays", res.Components.Holidays))
	}
	return specs
}

func componentTitle(name string) string {
	switch name {
	case forecast.LabelSeasYearly:
		return "Yearly"
	case forecast.LabelSeasWeekly:
		return "Weekly"
	}
	return name
}
