package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/goccy/go-json"
)

const (
	chartWidth  = "100%"
	chartHeight = "420px"

	// missingValue is how echarts marks a gap in a line
	missingValue = "-"

	// echartsInstance is replaced by the chart instance in injected scripts
	echartsInstance = "%MY_ECHARTS%"
)

var ErrMisalignedSeries = errors.New("series length does not match the x axis")

// RenderChart renders a single chart spec as a standalone HTML document
func RenderChart(spec ChartSpec) (string, error) {
	return RenderCharts([]ChartSpec{spec})
}

// RenderCharts renders the chart specs stacked on one standalone HTML document
func RenderCharts(specs []ChartSpec) (string, error) {
	page := components.NewPage()
	for _, spec := range specs {
		line, err := lineChart(spec)
		if err != nil {
			return "", fmt.Errorf("unable to build %s chart, %w", spec.Title, err)
		}
		page.AddCharts(line)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return "", fmt.Errorf("unable to render charts, %w", err)
	}
	return buf.String(), nil
}

func lineChart(spec ChartSpec) (*charts.Line, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(
			opts.Initialization{
				PageTitle: spec.Title,
				Width:     chartWidth,
				Height:    chartHeight,
			},
		),
		charts.WithTitleOpts(
			opts.Title{
				Title: spec.Title,
			},
		),
		charts.WithXAxisOpts(
			opts.XAxis{
				Name: spec.XLabel,
				Type: "category",
			},
		),
		charts.WithYAxisOpts(
			opts.YAxis{
				Name: spec.YLabel,
			},
		),
		charts.WithTooltipOpts(
			opts.Tooltip{
				Trigger: "axis",
			},
		),
		charts.WithLegendOpts(
			opts.Legend{
				Data: spec.Legend(),
				Top:  "bottom",
			},
		),
	)

	line.SetXAxis(spec.X)
	for _, series := range spec.Series {
		if len(series.Values) != len(spec.X) {
			return nil, fmt.Errorf("%s has %d values for %d x values, %w", series.Name, len(series.Values), len(spec.X), ErrMisalignedSeries)
		}
		line.AddSeries(series.Name, lineData(series.Values), seriesOpts(series)...)
	}

	fn, err := bandStackScript(spec)
	if err != nil {
		return nil, err
	}
	if fn != "" {
		line.AddJSFuncStrs(fn)
	}
	return line, nil
}

// stackUpdate is the per series patch merged by index into the rendered chart
type stackUpdate struct {
	StackStrategy string `json:"stackStrategy,omitempty"`
}

// bandStackScript stacks the band on its base regardless of sign. Echarts only stacks values
// of the same sign by default, which draws the band from zero once the lower bound is negative.
func bandStackScript(spec ChartSpec) (types.FuncStr, error) {
	updates := make([]stackUpdate, len(spec.Series))
	var banded bool
	for i, series := range spec.Series {
		if series.Role != RoleBandBase && series.Role != RoleBand {
			continue
		}
		updates[i].StackStrategy = "all"
		banded = true
	}
	if !banded {
		return "", nil
	}

	patch, err := json.Marshal(map[string][]stackUpdate{"series": updates})
	if err != nil {
		return "", fmt.Errorf("unable to encode band stacking, %w", err)
	}
	return types.FuncStr(fmt.Sprintf("%s.setOption(%s);", echartsInstance, patch)), nil
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			data = append(data, opts.LineData{Value: missingValue})
			continue
		}
		data = append(data, opts.LineData{Value: v})
	}
	return data
}

func seriesOpts(series SeriesSpec) []charts.SeriesOpts {
	switch series.Role {
	case RoleBandBase:
		return []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{Stack: bandStack}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorNone}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorNone}),
		}
	case RoleBand:
		return []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{Stack: bandStack}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorNone}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: series.Color}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: series.Color}),
		}
	}
	return []charts.SeriesOpts{
		charts.WithLineStyleOpts(opts.LineStyle{Color: series.Color}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: series.Color}),
	}
}
