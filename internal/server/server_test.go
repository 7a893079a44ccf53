package server

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/go-salesforecast/internal/config"
	"github.com/aouyang1/go-salesforecast/internal/dashboard"
	"github.com/aouyang1/go-salesforecast/internal/upload"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*Server, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	s, err := New(config.Default(), logger)
	require.NoError(t, err)
	return s, hook
}

func monthlyCSV(n int) string {
	return signedMonthlyCSV(n, 1)
}

func signedMonthlyCSV(n, sign int) string {
	var sb strings.Builder
	sb.WriteString("ds,y,store\n")
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%s,%d,north\n", start.AddDate(0, i, 0).Format("2006-01-02"), sign*(100+2*i+(i%12)*3))
	}
	return sb.String()
}

func multipartRequest(t *testing.T, target, csvData string, fields map[string][]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if csvData != "" {
		part, err := w.CreateFormFile(fieldFile, "sales.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(csvData))
		require.NoError(t, err)
	}
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(key, v))
		}
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, msgAwaitingUpload)
	assert.Contains(t, body, "#1abc9c")
	assert.NotContains(t, body, "Forecast Visualization")
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestForecastPage(t *testing.T) {
	testData := map[string]struct {
		csv      string
		fields   map[string][]string
		status   int
		contains []string
		excludes []string
	}{
		"success": {
			csv:    monthlyCSV(24),
			fields: map[string][]string{"horizon": {"12"}, "yearly": {"false", "true"}, "weekly": {"false"}},
			status: http.StatusOK,
			contains: []string{
				"Data loaded successfully!",
				"Forecast Visualization",
				"Trend & Seasonality",
				"Forecast Table",
				"store",
				"2024-12-01",
				`name="dataset"`,
				"<td>yearly</td>",
			},
			excludes: []string{msgAwaitingUpload},
		},
		"negative sales": {
			csv:    signedMonthlyCSV(24, -1),
			fields: map[string][]string{"horizon": {"12"}, "yearly": {"true"}, "weekly": {"false"}},
			status: http.StatusOK,
			contains: []string{
				"Forecast Visualization",
				"2024-12-01",
				`"stackStrategy":"all"`,
			},
		},
		"missing columns": {
			csv:      "date,sales\n2024-01-01,1\n2024-01-02,2\n",
			status:   http.StatusUnprocessableEntity,
			contains: []string{msgMissingColumns},
			excludes: []string{"Forecast Visualization", `name="dataset"`},
		},
		"invalid timestamp": {
			csv:      "ds,y\nyesterday,1\n",
			status:   http.StatusUnprocessableEntity,
			contains: []string{"invalid timestamp"},
			excludes: []string{"Forecast Visualization"},
		},
		"no file": {
			status:   http.StatusOK,
			contains: []string{msgAwaitingUpload},
			excludes: []string{"Forecast Visualization"},
		},
		"single time point": {
			csv:      "ds,y\n2024-01-01,1\n2024-01-01,3\n",
			status:   http.StatusInternalServerError,
			contains: []string{"Something went wrong"},
			excludes: []string{"Forecast Visualization"},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestServer(t)
			rec := serve(s, multipartRequest(t, "/", td.csv, td.fields))
			require.Equal(t, td.status, rec.Code)

			body := html.UnescapeString(rec.Body.String())
			for _, c := range td.contains {
				assert.Contains(t, body, c)
			}
			for _, c := range td.excludes {
				assert.NotContains(t, body, c)
			}
		})
	}
}

func TestForecastPageCharts(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, multipartRequest(t, "/", monthlyCSV(24), map[string][]string{
		"horizon": {"12"},
		"yearly":  {"false", "true"},
		"weekly":  {"false"},
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	body := html.UnescapeString(rec.Body.String())
	assert.Contains(t, body, dashboard.SeriesActual)
	assert.Contains(t, body, dashboard.SeriesForecast)
	assert.Contains(t, body, dashboard.SeriesInterval)
	assert.Contains(t, body, "Yearly")
	assert.Contains(t, body, `id="yearly" name="yearly" value="true" checked>`)
	assert.Contains(t, body, `id="weekly" name="weekly" value="true">`)
}

func TestForecastPageEchoedDataset(t *testing.T) {
	s, _ := newTestServer(t)

	form := url.Values{
		fieldDataset:  {base64.StdEncoding.EncodeToString([]byte(monthlyCSV(24)))},
		fieldFileName: {"sales.csv"},
		"horizon":     {"1000"},
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "sales.csv")
	assert.Contains(t, body, `value="365"`)

	form.Set(fieldDataset, "not base64!")
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIForecast(t *testing.T) {
	s, hook := newTestServer(t)

	req := multipartRequest(t, "/api/forecast", monthlyCSV(24), map[string][]string{
		"horizon": {"12"},
		"yearly":  {"true"},
		"weekly":  {"false"},
	})
	req.Header.Set(HeaderRequestID, "req-1")
	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))

	var res struct {
		Settings struct {
			Horizon int  `json:"horizon"`
			Yearly  bool `json:"yearly"`
			Weekly  bool `json:"weekly"`
		} `json:"settings"`
		Rows []dashboard.Row `json:"rows"`
		Tail []dashboard.Row `json:"tail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 12, res.Settings.Horizon)
	assert.True(t, res.Settings.Yearly)
	assert.False(t, res.Settings.Weekly)
	assert.Len(t, res.Rows, 36)
	assert.Len(t, res.Tail, 12)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}

func TestAPIForecastErrors(t *testing.T) {
	testData := map[string]struct {
		csv    string
		status int
		kind   string
		level  logrus.Level
	}{
		"no upload":       {"", http.StatusBadRequest, kindRequest, logrus.WarnLevel},
		"missing columns": {"a,b\n1,2\n", http.StatusUnprocessableEntity, kindSchema, logrus.WarnLevel},
		"invalid value":   {"ds,y\n2024-01-01,lots\n", http.StatusUnprocessableEntity, kindValue, logrus.WarnLevel},
		"insufficient":    {"ds,y\n2024-01-01,1\n", http.StatusInternalServerError, kindForecast, logrus.ErrorLevel},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s, hook := newTestServer(t)
			rec := serve(s, multipartRequest(t, "/api/forecast", td.csv, nil))
			require.Equal(t, td.status, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, td.kind, body.Kind)
			assert.NotEmpty(t, body.RequestID)

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, td.level, entry.Level)
		})
	}
}

func TestSample(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/sample.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, sampleDays+1)
	assert.Equal(t, "ds,y", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2022-01-01,"))

	// the sample round trips through the dashboard
	rec = serve(s, multipartRequest(t, "/", rec.Body.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNewThemes(t *testing.T) {
	testData := map[string]struct {
		theme    string
		expected string
		err      error
	}{
		"emerald": {config.ThemeEmerald, "#1abc9c", nil},
		"classic": {config.ThemeClassic, "#2c3e50", nil},
		"unknown": {"neon", "", config.ErrUnknownTheme},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Theme = td.theme
			logger, _ := test.NewNullLogger()

			s, err := New(cfg, logger)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, s.theme.Primary)
		})
	}
}

func TestUploadMessage(t *testing.T) {
	testData := map[string]struct {
		csv      string
		expected string
	}{
		"missing columns": {"date,sales\n2024-01-01,1\n", msgMissingColumns},
		"empty file":      {"", msgUnreadableFile},
		"invalid value":   {"ds,y\n2024-01-01,lots\n", msgInvalidRow},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := upload.Parse(strings.NewReader(td.csv))
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(uploadMessage(err), td.expected))
		})
	}
}

func TestNewKeepsGinMode(t *testing.T) {
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	_, err := New(config.Default(), logger)
	require.NoError(t, err)
	assert.Equal(t, gin.TestMode, gin.Mode())
}
