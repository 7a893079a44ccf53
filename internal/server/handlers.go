package server

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aouyang1/go-salesforecast/internal/dashboard"
	"github.com/aouyang1/go-salesforecast/internal/settings"
	"github.com/aouyang1/go-salesforecast/internal/upload"
	"github.com/aouyang1/go-salesforecast/timedataset"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	fieldFile     = "file"
	fieldDataset  = "dataset"
	fieldFileName = "filename"

	sampleDays = 730
	sampleSeed = 1

	kindRequest  = "request"
	kindSchema   = "schema"
	kindValue    = "value"
	kindForecast = "forecast"
)

var (
	ErrInvalidDataset = errors.New("invalid echoed dataset")
	ErrNoUpload       = errors.New("no csv file uploaded")
)

var sampleStart = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

// submission is a parsed dashboard form. raw is nil when nothing was uploaded.
type submission struct {
	raw      []byte
	fileName string
	settings settings.Settings
}

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id"`
}

func (s *Server) handleIndex(c *gin.Context) {
	view := s.newView(requestID(c))
	view.Info = msgAwaitingUpload
	c.HTML(http.StatusOK, "index.html", view)
}

func (s *Server) handleForecast(c *gin.Context) {
	view := s.newView(requestID(c))

	sub, err := s.readSubmission(c)
	if err != nil {
		c.Error(err)
		view.Error = err.Error()
		c.HTML(http.StatusBadRequest, "index.html", view)
		return
	}
	view.Settings = sub.settings.Clamp()
	if sub.raw == nil {
		view.Info = msgAwaitingUpload
		c.HTML(http.StatusOK, "index.html", view)
		return
	}

	res, status, err := s.run(sub)
	if err != nil {
		c.Error(err)
		if status == http.StatusUnprocessableEntity {
			view.Error = uploadMessage(err)
			c.HTML(status, "index.html", view)
			return
		}
		view.Error = err.Error()
		c.HTML(status, "error.html", view)
		return
	}

	overlay, err := dashboard.RenderChart(res.Overlay)
	if err != nil {
		c.Error(err)
		view.Error = err.Error()
		c.HTML(http.StatusInternalServerError, "error.html", view)
		return
	}
	comps, err := dashboard.RenderCharts(res.Components)
	if err != nil {
		c.Error(err)
		view.Error = err.Error()
		c.HTML(http.StatusInternalServerError, "error.html", view)
		return
	}
	s.logModel(c, res)

	view.Settings = res.Settings
	view.Result = res
	view.Dataset = base64.StdEncoding.EncodeToString(sub.raw)
	view.FileName = sub.fileName
	view.OverlayDoc = overlay
	view.ComponentsDoc = comps
	view.ComponentsHeight = len(res.Components) * componentChartHeight
	c.HTML(http.StatusOK, "index.html", view)
}

func (s *Server) handleAPIForecast(c *gin.Context) {
	sub, err := s.readSubmission(c)
	if err != nil {
		c.Error(err)
		writeJSON(c, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: kindRequest, RequestID: requestID(c)})
		return
	}
	if sub.raw == nil {
		c.Error(ErrNoUpload)
		writeJSON(c, http.StatusBadRequest, errorBody{Error: ErrNoUpload.Error(), Kind: kindRequest, RequestID: requestID(c)})
		return
	}

	res, status, err := s.run(sub)
	if err != nil {
		c.Error(err)
		writeJSON(c, status, errorBody{Error: err.Error(), Kind: errorKind(status, err), RequestID: requestID(c)})
		return
	}
	s.logModel(c, res)
	writeJSON(c, http.StatusOK, res)
}

func (s *Server) handleSample(c *gin.Context) {
	t, y := timedataset.GenerateSales(sampleDays, sampleStart, sampleSeed)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{upload.DateColumn, upload.ValueColumn}); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	for i := range t {
		record := []string{t[i].Format(dashboard.DateLayout), strconv.FormatFloat(y[i], 'f', 2, 64)}
		if err := w.Write(record); err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="sample_sales.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// readSubmission reads the settings and the dataset from either the uploaded file or the
// dataset echoed back by a previous page
func (s *Server) readSubmission(c *gin.Context) (*submission, error) {
	if err := parseForm(c.Request, s.engine.MaxMultipartMemory); err != nil {
		return nil, fmt.Errorf("unable to parse form, %w", err)
	}
	sub := &submission{settings: settings.FromForm(c.Request.PostForm)}

	fh, err := c.FormFile(fieldFile)
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("unable to open upload, %w", err)
		}
		defer f.Close()

		raw, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("unable to read upload, %w", err)
		}
		sub.raw = raw
		sub.fileName = fh.Filename
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		encoded := c.PostForm(fieldDataset)
		if encoded == "" {
			return sub, nil
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w, %w", ErrInvalidDataset, err)
		}
		sub.raw = raw
		sub.fileName = c.PostForm(fieldFileName)
	default:
		return nil, fmt.Errorf("unable to read upload, %w", err)
	}
	return sub, nil
}

// parseForm parses both url encoded and multipart bodies
func parseForm(r *http.Request, maxMemory int64) error {
	err := r.ParseMultipartForm(maxMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	return err
}

// run validates the submitted csv and runs the forecast. The returned status is 422 for an
// unusable upload and 500 when the forecast itself fails.
func (s *Server) run(sub *submission) (*dashboard.Result, int, error) {
	tbl, err := upload.Parse(bytes.NewReader(sub.raw))
	if err != nil {
		return nil, http.StatusUnprocessableEntity, err
	}
	res, err := dashboard.Run(tbl, sub.settings, s.opt)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return res, http.StatusOK, nil
}

// uploadMessage explains an unusable upload, separating a bad file shape from a bad cell
func uploadMessage(err error) string {
	switch {
	case errors.Is(err, upload.ErrMissingColumns):
		return msgMissingColumns
	case upload.IsSchemaError(err):
		return fmt.Sprintf("%s %v", msgUnreadableFile, err)
	}
	return fmt.Sprintf("%s %v", msgInvalidRow, err)
}

// errorKind classifies a failed request for API clients
func errorKind(status int, err error) string {
	switch {
	case status != http.StatusUnprocessableEntity:
		return kindForecast
	case upload.IsSchemaError(err):
		return kindSchema
	}
	return kindValue
}

func (s *Server) logModel(c *gin.Context, res *dashboard.Result) {
	if !s.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	var buf bytes.Buffer
	if err := res.Model.Series.TablePrint(&buf); err != nil {
		s.logger.WithError(err).Warn("unable to print model")
		return
	}
	s.logger.WithField("request_id", requestID(c)).Debugf("fit model\n%s", buf.String())
}

func writeJSON(c *gin.Context, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}
