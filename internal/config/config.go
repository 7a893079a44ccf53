// Package config loads the server configuration from a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"github.com/sirupsen/logrus"
)

const (
	ThemeEmerald = "emerald"
	ThemeClassic = "classic"

	HolidaysNone = ""
	HolidaysUS   = "us"

	ProfileNone = ""
	ProfileCPU  = "cpu"
	ProfileMem  = "mem"
)

var (
	ErrUnknownTheme    = errors.New("unknown theme")
	ErrUnknownHolidays = errors.New("unknown holiday calendar")
	ErrUnknownProfile  = errors.New("unknown profile mode")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

var validate = validator.New()

// fieldErrors maps a config field failing validation to the error reported for it
var fieldErrors = map[string]error{
	"Theme":    ErrUnknownTheme,
	"Holidays": ErrUnknownHolidays,
	"Profile":  ErrUnknownProfile,
}

type Config struct {
	Port     string `validate:"required"`
	LogLevel string
	Theme    string `validate:"oneof=emerald classic"`

	// forecast knobs that are not exposed as dashboard controls
	IntervalWidth float64 `validate:"gt=0,lt=1"`
	Changepoints  int     `validate:"gte=0"`
	Holidays      string  `validate:"omitempty,oneof=us"`

	Profile     string `validate:"omitempty,oneof=cpu mem"`
	ProfilePath string

	// MaxUploadMB bounds the multipart form memory, larger files spill to disk
	MaxUploadMB int64 `validate:"gt=0"`
}

// Default returns the configuration used when nothing is set in the environment
func Default() *Config {
	return &Config{
		Port:          "8501",
		LogLevel:      "info",
		Theme:         ThemeEmerald,
		IntervalWidth: 0.8,
		Changepoints:  25,
		Holidays:      HolidaysNone,
		Profile:       ProfileNone,
		ProfilePath:   ".",
		MaxUploadMB:   32,
	}
}

// Load reads an optional .env file followed by the environment and applies the log level
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("no .env file found, using environment variables")
	}

	def := Default()
	cfg := &Config{
		Port:          getEnv("PORT", def.Port),
		LogLevel:      getEnv("LOG_LEVEL", def.LogLevel),
		Theme:         strings.ToLower(getEnv("THEME", def.Theme)),
		IntervalWidth: getEnvFloat("INTERVAL_WIDTH", def.IntervalWidth),
		Changepoints:  getEnvInt("CHANGEPOINTS", def.Changepoints),
		Holidays:      strings.ToLower(getEnv("HOLIDAYS", def.Holidays)),
		Profile:       strings.ToLower(getEnv("PROFILE", def.Profile)),
		ProfilePath:   getEnv("PROFILE_PATH", def.ProfilePath),
		MaxUploadMB:   int64(getEnvInt("MAX_UPLOAD_MB", int(def.MaxUploadMB))),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	return cfg, nil
}

// Validate checks the enumerated settings and numeric ranges
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	fe := verrs[0]
	sentinel, exists := fieldErrors[fe.Field()]
	if !exists {
		sentinel = ErrInvalidValue
	}
	return fmt.Errorf("%s=%v fails %s %s, %w", fe.Field(), fe.Value(), fe.Tag(), fe.Param(), sentinel)
}

// HolidayCalendar returns the holidays modelled by the forecast
func (c *Config) HolidayCalendar() []*cal.Holiday {
	switch c.Holidays {
	case HolidaysUS:
		return []*cal.Holiday{
			us.NewYear,
			us.MemorialDay,
			us.IndependenceDay,
			us.LaborDay,
			us.ThanksgivingDay,
			us.ChristmasDay,
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.Warnf("ignoring %s=%q, not an integer", key, value)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		logrus.Warnf("ignoring %s=%q, not a number", key, value)
	}
	return defaultValue
}
