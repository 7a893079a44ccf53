// Package settings collects the forecast configuration from the dashboard controls.
package settings

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinHorizon     = 7
	MaxHorizon     = 365
	HorizonStep    = 7
	DefaultHorizon = 30

	FieldHorizon = "horizon"
	FieldYearly  = "yearly"
	FieldWeekly  = "weekly"
)

var ErrInvalidSettings = errors.New("invalid forecast settings")

var validate = validator.New()

// Settings is the forecast configuration for a single interaction
type Settings struct {
	Horizon int  `json:"horizon" validate:"gte=7,lte=365"`
	Yearly  bool `json:"yearly"`
	Weekly  bool `json:"weekly"`
}

// Default returns a 30 period horizon with yearly and weekly seasonality enabled
func Default() Settings {
	return Settings{
		Horizon: DefaultHorizon,
		Yearly:  true,
		Weekly:  true,
	}
}

// FromForm reads the controls from submitted form values. Missing or unparseable values fall
// back to their defaults and the horizon is clamped into range. Toggles are rendered as a hidden
// false input followed by a checkbox so the last submitted value wins.
func FromForm(values url.Values) Settings {
	s := Default()
	if v, ok := last(values, FieldHorizon); ok {
		if horizon, err := strconv.Atoi(v); err == nil {
			s.Horizon = horizon
		}
	}
	s.Yearly = formBool(values, FieldYearly, s.Yearly)
	s.Weekly = formBool(values, FieldWeekly, s.Weekly)
	return s.Clamp()
}

func last(values url.Values, key string) (string, bool) {
	vals := values[key]
	if len(vals) == 0 {
		return "", false
	}
	return strings.TrimSpace(vals[len(vals)-1]), true
}

func formBool(values url.Values, key string, def bool) bool {
	v, ok := last(values, key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "on":
		return true
	case "off":
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Clamp returns the settings with the horizon limited to [MinHorizon, MaxHorizon]
func (s Settings) Clamp() Settings {
	s.Horizon = max(MinHorizon, min(MaxHorizon, s.Horizon))
	return s
}

// Validate checks the settings are within the ranges the forecaster accepts
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

// Seasonalities returns the names of the enabled seasonality toggles
func (s Settings) Seasonalities() []string {
	var names []string
	if s.Yearly {
		names = append(names, FieldYearly)
	}
	if s.Weekly {
		names = append(names, FieldWeekly)
	}
	return names
}
