package config

import (
	"testing"

	"github.com/rickar/cal/v2/us"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	testData := map[string]struct {
		env      map[string]string
		expected *Config
		err      error
	}{
		"defaults": {
			env:      map[string]string{},
			expected: Default(),
		},
		"overrides": {
			env: map[string]string{
				"PORT":           "9000",
				"LOG_LEVEL":      "debug",
				"THEME":          "Classic",
				"INTERVAL_WIDTH": "0.95",
				"CHANGEPOINTS":   "10",
				"HOLIDAYS":       "US",
				"PROFILE":        "cpu",
				"PROFILE_PATH":   "/tmp",
				"MAX_UPLOAD_MB":  "8",
			},
			expected: &Config{
				Port:          "9000",
				LogLevel:      "debug",
				Theme:         ThemeClassic,
				IntervalWidth: 0.95,
				Changepoints:  10,
				Holidays:      HolidaysUS,
				Profile:       ProfileCPU,
				ProfilePath:   "/tmp",
				MaxUploadMB:   8,
			},
		},
		"unparseable numbers fall back": {
			env: map[string]string{
				"INTERVAL_WIDTH": "wide",
				"CHANGEPOINTS":   "many",
			},
			expected: Default(),
		},
		"unknown theme": {
			env: map[string]string{"THEME": "neon"},
			err: ErrUnknownTheme,
		},
		"unknown holidays": {
			env: map[string]string{"HOLIDAYS": "mars"},
			err: ErrUnknownHolidays,
		},
		"unknown profile": {
			env: map[string]string{"PROFILE": "block"},
			err: ErrUnknownProfile,
		},
		"interval width out of range": {
			env: map[string]string{"INTERVAL_WIDTH": "1.5"},
			err: ErrInvalidValue,
		},
		"negative changepoints": {
			env: map[string]string{"CHANGEPOINTS": "-1"},
			err: ErrInvalidValue,
		},
	}

	keys := []string{"PORT", "LOG_LEVEL", "THEME", "INTERVAL_WIDTH", "CHANGEPOINTS", "HOLIDAYS", "PROFILE", "PROFILE_PATH", "MAX_UPLOAD_MB"}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			defer logrus.SetLevel(logrus.InfoLevel)
			for _, key := range keys {
				t.Setenv(key, td.env[key])
			}

			cfg, err := Load()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, cfg)
		})
	}
}

func TestLoadLogLevel(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	t.Setenv("LOG_LEVEL", "warn")
	_, err := Load()
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	t.Setenv("LOG_LEVEL", "loud")
	_, err = Load()
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestHolidayCalendar(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.HolidayCalendar())

	cfg.Holidays = HolidaysUS
	hols := cfg.HolidayCalendar()
	assert.Len(t, hols, 6)
	assert.Contains(t, hols, us.ChristmasDay)
}

func TestValidate(t *testing.T) {
	testData := map[string]struct {
		update func(c *Config)
		field  string
		err    error
	}{
		"default":            {update: func(c *Config) {}},
		"classic with us":    {update: func(c *Config) { c.Theme, c.Holidays, c.Profile = ThemeClassic, HolidaysUS, ProfileMem }},
		"empty port":         {update: func(c *Config) { c.Port = "" }, field: "Port", err: ErrInvalidValue},
		"unknown theme":      {update: func(c *Config) { c.Theme = "" }, field: "Theme", err: ErrUnknownTheme},
		"unknown holidays":   {update: func(c *Config) { c.Holidays = "uk" }, field: "Holidays", err: ErrUnknownHolidays},
		"unknown profile":    {update: func(c *Config) { c.Profile = "trace" }, field: "Profile", err: ErrUnknownProfile},
		"zero width":         {update: func(c *Config) { c.IntervalWidth = 0 }, field: "IntervalWidth", err: ErrInvalidValue},
		"full width":         {update: func(c *Config) { c.IntervalWidth = 1 }, field: "IntervalWidth", err: ErrInvalidValue},
		"zero upload memory": {update: func(c *Config) { c.MaxUploadMB = 0 }, field: "MaxUploadMB", err: ErrInvalidValue},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			td.update(cfg)

			err := cfg.Validate()
			if td.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, td.err)
			assert.Contains(t, err.Error(), td.field+"=")
		})
	}
}
