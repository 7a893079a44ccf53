package feature

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrFeatureLenMismatch = errors.New("feature data length does not match the set")

// Set tracks the data of each feature in insertion order so that the resulting design
// matrix columns are deterministic.
type Set struct {
	m      int
	set    map[string][]float64
	labels []Feature
}

func NewSet() *Set {
	return &Set{
		set: make(map[string][]float64),
	}
}

// Set stores the data for a feature. Every feature in a set must have the same number
// of observations. Setting an existing feature replaces its data.
func (s *Set) Set(f Feature, data []float64) error {
	if s.m != 0 && len(data) != s.m {
		return fmt.Errorf("%s has %d observations but set has %d, %w", f, len(data), s.m, ErrFeatureLenMismatch)
	}
	s.m = len(data)
	if _, exists := s.set[f.String()]; !exists {
		s.labels = append(s.labels, f)
	}
	s.set[f.String()] = data
	return nil
}

// Get returns the data for a feature and whether it exists
func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	data, exists := s.set[f.String()]
	return data, exists
}

// Len returns the number of features
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// Rows returns the number of observations per feature
func (s *Set) Rows() int {
	if s == nil {
		return 0
	}
	return s.m
}

// Labels returns the feature labels in insertion order
func (s *Set) Labels() *Labels {
	if s == nil {
		return nil
	}
	return NewLabels(s.labels)
}

// Filter returns a new set referencing only the features of the given types
func (s *Set) Filter(types ...FeatureType) *Set {
	res := NewSet()
	if s == nil {
		return res
	}
	for _, f := range s.labels {
		for _, ft := range types {
			if f.Type() == ft {
				res.labels = append(res.labels, f)
				res.set[f.String()] = s.set[f.String()]
				res.m = s.m
				break
			}
		}
	}
	return res
}

// FilterBy returns a new set referencing only the features matching the label value
func (s *Set) FilterBy(ft FeatureType, label, value string) *Set {
	res := NewSet()
	if s == nil {
		return res
	}
	for _, f := range s.labels {
		if f.Type() != ft {
			continue
		}
		if val, exists := f.Get(label); exists && val == value {
			res.labels = append(res.labels, f)
			res.set[f.String()] = s.set[f.String()]
			res.m = s.m
		}
	}
	return res
}

// Matrix returns a matrix representation of the Set to be used with matrix methods.
// The matrix has m rows representing the number of observations and n columns representing
// the number of features.
func (s *Set) Matrix() *mat.Dense {
	if s.Len() == 0 || s.m == 0 {
		return nil
	}

	n := len(s.labels)
	obs := make([]float64, s.m*n)
	for j, label := range s.labels {
		data := s.set[label.String()]
		for i := 0; i < s.m; i++ {
			obs[n*i+j] = data[i]
		}
	}
	return mat.NewDense(s.m, n, obs)
}
