package feature

import (
	"fmt"
	"strings"
)

// Changepoint is a change in the growth rate starting at a point in time
type Changepoint struct {
	Name string `json:"name"`
}

func NewChangepoint(name string) *Changepoint {
	return &Changepoint{name}
}

func (c Changepoint) String() string {
	return fmt.Sprintf("chpnt_%s", c.Name)
}

func (c Changepoint) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return c.Name, true
	}
	return "", false
}

func (c Changepoint) Type() FeatureType {
	return FeatureTypeChangepoint
}

func (c Changepoint) Decode() map[string]string {
	return map[string]string{"name": c.Name}
}
