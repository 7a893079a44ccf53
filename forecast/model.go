package forecast

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-salesforecast/feature"
)

// Model represents a serializeable format of a forecast storing the forecast options, fit scores,
// and coefficients
type Model struct {
	TrainStartTime time.Time `json:"train_start_time"`
	TrainEndTime   time.Time `json:"train_end_time"`
	Options        *Options  `json:"options"`
	Holidays       []string  `json:"holidays,omitempty"`
	Scores         *Scores   `json:"scores"`
	Weights        Weights   `json:"weights"`
}

// Weights stores the coefficients for the forecast model
type Weights struct {
	Intercept float64         `json:"intercept"`
	Coef      []FeatureWeight `json:"coefficients"`
}

// Coefficients returns a slice copy of the coefficients ignoring the intercept.
func (w *Weights) Coefficients() []float64 {
	coef := make([]float64, 0, len(w.Coef))
	for _, fw := range w.Coef {
		coef = append(coef, fw.Value)
	}
	return coef
}

// FeatureWeight represents a feature described with a type e.g. changepoint, labels and the value
type FeatureWeight struct {
	Labels map[string]string   `json:"labels"`
	Type   feature.FeatureType `json:"type"`
	Value  float64             `json:"value"`
}

func NewFeatureWeight(f feature.Feature, val float64) FeatureWeight {
	return FeatureWeight{
		Labels: f.Decode(),
		Type:   f.Type(),
		Value:  val,
	}
}

// TablePrint writes a human readable summary of the model, skipping zeroed coefficients
func (m Model) TablePrint(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Training Window: %s - %s\n", m.TrainStartTime, m.TrainEndTime); err != nil {
		return err
	}
	if m.Scores != nil {
		if _, err := fmt.Fprintf(w, "MAPE: %.3f    MSE: %.3f    R2: %.3f\n", m.Scores.MAPE, m.Scores.MSE, m.Scores.R2); err != nil {
			return err
		}
	}

	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "Type\tName\tValue\t\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tbl, "intercept\t\t%.3f\t\n", m.Weights.Intercept); err != nil {
		return err
	}
	for _, fw := range m.Weights.Coef {
		if fw.Value == 0 {
			continue
		}
		name := fw.Labels["name"]
		if order, exists := fw.Labels["order"]; exists {
			name = fmt.Sprintf("%s_%s_%s", name, order, fw.Labels["fourier_component"])
		}
		if _, err := fmt.Fprintf(tbl, "%s\t%s\t%.3f\t\n", fw.Type, name, fw.Value); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
