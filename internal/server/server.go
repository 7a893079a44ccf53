// Package server serves the forecast dashboard page, its JSON API and a sample dataset.
package server

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/aouyang1/go-salesforecast/internal/config"
	"github.com/aouyang1/go-salesforecast/internal/dashboard"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

type Server struct {
	engine *gin.Engine
	cfg    *config.Config
	opt    *dashboard.Options
	theme  Theme
	logger *logrus.Logger
}

// New builds the gin engine with the page templates and routes. A nil config uses the defaults
// and a nil logger uses the standard logrus logger. The gin mode is left to the caller.
func New(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("unable to parse page templates, %w", err)
	}

	engine := gin.New()
	engine.MaxMultipartMemory = cfg.MaxUploadMB << 20
	engine.SetHTMLTemplate(tmpl)
	engine.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		engine: engine,
		cfg:    cfg,
		opt: &dashboard.Options{
			IntervalWidth: cfg.IntervalWidth,
			Changepoints:  cfg.Changepoints,
			Holidays:      cfg.HolidayCalendar(),
			PreviewRows:   dashboard.DefaultPreviewRows,
		},
		theme:  themes[cfg.Theme],
		logger: logger,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	s.engine.GET("/", s.handleIndex)
	s.engine.POST("/", s.handleForecast)
	s.engine.GET("/sample.csv", s.handleSample)

	api := s.engine.Group("/api")
	{
		api.POST("/forecast", s.handleAPIForecast)
	}
}

// Handler returns the http handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return ":" + s.cfg.Port
}
