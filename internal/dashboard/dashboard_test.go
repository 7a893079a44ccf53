package dashboard

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1/go-salesforecast/internal/settings"
	"github.com/aouyang1/go-salesforecast/internal/upload"
	"github.com/aouyang1/go-salesforecast/timedataset"
	"github.com/goccy/go-json"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

func tableFrom(t []time.Time, y []float64) *upload.Table {
	tbl := &upload.Table{Header: []string{upload.DateColumn, upload.ValueColumn}, T: t, Y: y}
	for i := range t {
		tbl.Records = append(tbl.Records, []string{t[i].Format(DateLayout), "0"})
	}
	return tbl
}

func monthlyTable() *upload.Table {
	t := timedataset.GenerateMonthlyT(24, testStart)
	y := timedataset.GenerateConstY(24, 100).
		Add(timedataset.GenerateLinearY(t, 0.2)).
		Add(timedataset.GenerateWaveY(t, 15, 365.25*86400, 1, 0))
	return tableFrom(t, y)
}

func TestRunMonthlyScenario(t *testing.T) {
	tbl := monthlyTable()
	res, err := Run(tbl, settings.Settings{Horizon: 12, Yearly: true, Weekly: false}, nil)
	require.NoError(t, err)

	require.Len(t, res.Rows, 36)
	require.Len(t, res.Tail, 12)
	lastInput := tbl.T[len(tbl.T)-1]
	for _, row := range res.Tail {
		assert.True(t, row.DS.After(lastInput), "%s is not after %s", row.DS, lastInput)
	}
	assert.Equal(t, lastInput.AddDate(0, 12, 0), res.Tail[11].DS)
	assert.Equal(t, "1 month(s)", res.Frequency)

	legend := res.Overlay.Legend()
	assert.Contains(t, legend, SeriesActual)
	assert.Contains(t, legend, SeriesForecast)
	assert.Contains(t, legend, SeriesInterval)

	titles := make([]string, 0, len(res.Components))
	for _, c := range res.Components {
		titles = append(titles, c.Title)
	}
	assert.Equal(t, []string{"Trend", "Yearly"}, titles)
	assert.Len(t, res.Preview, DefaultPreviewRows)
	assert.NotEmpty(t, res.ModelEq)
}

func TestRunRowCount(t *testing.T) {
	tSeries, y := timedataset.GenerateSales(90, testStart, 2)
	// repeat a day and leave one observation missing
	tSeries = append(tSeries, tSeries[10])
	y = append(y, y[10]+4)
	y[20] = math.NaN()

	testData := map[string]struct {
		horizon  int
		expected int
	}{
		"default":       {30, 90 + 30},
		"clamped low":   {1, 90 + settings.MinHorizon},
		"clamped high":  {400, 90 + settings.MaxHorizon},
		"off step size": {10, 90 + 10},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Run(tableFrom(tSeries, y), settings.Settings{Horizon: td.horizon, Yearly: true, Weekly: true}, nil)
			require.NoError(t, err)
			assert.Len(t, res.Rows, td.expected)
			assert.Len(t, res.Tail, res.Settings.Horizon)

			for _, row := range res.Rows {
				assert.LessOrEqual(t, row.YHatLower, row.YHat)
				assert.LessOrEqual(t, row.YHat, row.YHatUpper)
			}
		})
	}
}

func TestRunOverlay(t *testing.T) {
	tSeries := timedataset.GenerateT(14, 24*time.Hour, testStart)
	y := timedataset.GenerateConstY(14, 10)
	tSeries = append(tSeries, tSeries[0])
	y = append(y, 20)

	res, err := Run(tableFrom(tSeries, y), settings.Settings{Horizon: 7, Weekly: true}, nil)
	require.NoError(t, err)

	overlay := res.Overlay
	require.Len(t, overlay.X, 21)
	assert.Equal(t, "2022-01-01", overlay.X[0])
	assert.Equal(t, "2022-01-21", overlay.X[20])
	require.Len(t, overlay.Series, 4)

	actual := overlay.Series[0].Values
	assert.Equal(t, 15.0, actual[0])
	assert.Equal(t, 10.0, actual[13])
	assert.True(t, math.IsNaN(actual[14]))

	yhat := overlay.Series[1].Values
	assert.True(t, math.IsNaN(yhat[13]))
	assert.Equal(t, res.Rows[14].YHat, yhat[14])

	lower := overlay.Series[2].Values
	width := overlay.Series[3].Values
	assert.Equal(t, RoleBandBase, overlay.Series[2].Role)
	assert.Equal(t, RoleBand, overlay.Series[3].Role)
	for i := 14; i < 21; i++ {
		assert.Equal(t, res.Rows[i].YHatLower, lower[i])
		assert.InDelta(t, res.Rows[i].YHatUpper, lower[i]+width[i], 1e-9)
	}
}

func TestRunComponentsWithHolidays(t *testing.T) {
	tSeries, y := timedataset.GenerateSales(400, testStart, 9)
	opt := NewDefaultOptions()
	opt.Holidays = []*cal.Holiday{us.ChristmasDay, us.ThanksgivingDay}

	res, err := Run(tableFrom(tSeries, y), settings.Default(), opt)
	require.NoError(t, err)

	titles := make([]string, 0, len(res.Components))
	for _, c := range res.Components {
		titles = append(titles, c.Title)
		assert.Len(t, c.X, len(res.Rows))
		require.Len(t, c.Series, 1)
		assert.Len(t, c.Series[0].Values, len(res.Rows))
	}
	assert.Equal(t, []string{"Trend", "Yearly", "Weekly", "Holidays"}, titles)
}

func TestRunDeterministic(t *testing.T) {
	tSeries, y := timedataset.GenerateSales(120, testStart, 4)
	tbl := tableFrom(tSeries, y)

	res1, err := Run(tbl, settings.Default(), nil)
	require.NoError(t, err)
	res2, err := Run(tbl, settings.Default(), nil)
	require.NoError(t, err)

	assert.Equal(t, res1.Rows, res2.Rows)
	assert.Equal(t, res1.Scores, res2.Scores)
	assert.Equal(t, res1.ModelEq, res2.ModelEq)

	out1, err := json.Marshal(res1)
	require.NoError(t, err)
	out2, err := json.Marshal(res2)
	require.NoError(t, err)
	assert.JSONEq(t, string(out1), string(out2))
}

func TestRunErrors(t *testing.T) {
	_, err := Run(nil, settings.Default(), nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Run(&upload.Table{}, settings.Default(), nil)
	assert.ErrorIs(t, err, ErrNoData)

	single := tableFrom([]time.Time{testStart}, []float64{1})
	_, err = Run(single, settings.Default(), nil)
	assert.Error(t, err)

	opt := NewDefaultOptions()
	opt.IntervalWidth = 1.5
	_, err = Run(monthlyTable(), settings.Default(), opt)
	assert.Error(t, err)
}

func TestMeanByTime(t *testing.T) {
	history := timedataset.GenerateT(3, time.Hour, testStart)
	tSeries := []time.Time{history[1], history[0], history[1], history[2]}
	y := []float64{2, 1, 4, math.NaN()}

	res := meanByTime(history, tSeries, y)
	assert.Equal(t, 1.0, res[0])
	assert.Equal(t, 3.0, res[1])
	assert.True(t, math.IsNaN(res[2]))
}

func TestDateLayout(t *testing.T) {
	assert.Equal(t, DateLayout, dateLayout(timedataset.GenerateT(3, 24*time.Hour, testStart)))
	assert.Equal(t, DateTimeLayout, dateLayout(timedataset.GenerateT(3, time.Hour, testStart)))
}

func TestValuesMarshalJSON(t *testing.T) {
	out, err := json.Marshal(SeriesSpec{Name: "a", Values: Values{1.5, math.NaN(), 2}, Role: RoleLine})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a","values":[1.5,null,2],"role":"line"}`, string(out))
}

func TestRunNonPositive(t *testing.T) {
	sales, sy := timedataset.GenerateSales(120, testStart, 5)
	negated := make([]float64, len(sy))
	for i, v := range sy {
		negated[i] = -v
	}

	wave := timedataset.GenerateT(90, 24*time.Hour, testStart)
	crossing := timedataset.GenerateWaveY(wave, 10, 7*86400, 1, 0)

	testData := map[string]struct {
		t []time.Time
		y []float64
	}{
		"negative":     {sales, negated},
		"crosses zero": {wave, crossing},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Run(tableFrom(td.t, td.y), settings.Settings{Horizon: 14, Weekly: true}, nil)
			require.NoError(t, err)

			minLower := math.Inf(1)
			for _, row := range res.Rows {
				assert.LessOrEqual(t, row.YHatLower, row.YHat)
				assert.LessOrEqual(t, row.YHat, row.YHatUpper)
				minLower = math.Min(minLower, row.YHatLower)
			}
			assert.Less(t, minLower, 0.0)

			lower := res.Overlay.Series[2].Values
			width := res.Overlay.Series[3].Values
			for i := len(res.Rows) - res.Settings.Horizon; i < len(res.Rows); i++ {
				assert.Equal(t, res.Rows[i].YHatLower, lower[i])
				assert.GreaterOrEqual(t, width[i], 0.0)
				assert.InDelta(t, res.Rows[i].YHatUpper, lower[i]+width[i], 1e-9)
			}

			out, err := RenderChart(res.Overlay)
			require.NoError(t, err)
			assert.Contains(t, out, `"stackStrategy":"all"`)
		})
	}
}
