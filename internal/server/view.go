package server

import (
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"github.com/aouyang1/go-salesforecast/internal/config"
	"github.com/aouyang1/go-salesforecast/internal/dashboard"
	"github.com/aouyang1/go-salesforecast/internal/settings"
)

const (
	pageTitle = "📊 Sales Forecast App"

	msgAwaitingUpload = "Upload a CSV file to begin."
	msgMissingColumns = "Your file must contain 'ds' and 'y' columns."
	msgUnreadableFile = "Unable to read the file as CSV:"
	msgInvalidRow     = "The file has an invalid row:"

	// componentChartHeight is the height of one decomposition chart including its margins
	componentChartHeight = 440
)

// Theme is a page color scheme
type Theme struct {
	Primary    string
	Accent     string
	Background string
	Text       string
	Muted      string
}

var themes = map[string]Theme{
	config.ThemeEmerald: {
		Primary:    "#1abc9c",
		Accent:     "#27ae60",
		Background: "#ecf0f1",
		Text:       "#34495e",
		Muted:      "#7f8c8d",
	},
	config.ThemeClassic: {
		Primary:    "#2c3e50",
		Accent:     "#2ecc71",
		Background: "#f8f9fa",
		Text:       "#212529",
		Muted:      "#6c757d",
	},
}

// pageView is the data every page template renders
type pageView struct {
	Title     string
	Theme     Theme
	RequestID string

	Settings    settings.Settings
	MinHorizon  int
	MaxHorizon  int
	HorizonStep int

	Info  string
	Error string

	// Dataset is the base64 encoded upload echoed back so that changing a control refits the
	// same data without uploading it again
	Dataset  string
	FileName string

	Result           *dashboard.Result
	OverlayDoc       string
	ComponentsDoc    string
	ComponentsHeight int
}

func (s *Server) newView(requestID string) *pageView {
	return &pageView{
		Title:       pageTitle,
		Theme:       s.theme,
		RequestID:   requestID,
		Settings:    settings.Default(),
		MinHorizon:  settings.MinHorizon,
		MaxHorizon:  settings.MaxHorizon,
		HorizonStep: settings.HorizonStep,
	}
}

var templateFuncs = template.FuncMap{
	"fmtFloat": fmtFloat,
	"fmtTime":  fmtTime,
	"join":     strings.Join,
}

func fmtFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}

func fmtTime(t time.Time, layout string) string {
	return t.Format(layout)
}
