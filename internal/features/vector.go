package features

import (
	"fmt"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
)

// Vector is an immutable set of named feature values.
type Vector struct {
	names  []string
	values []float64
}

// NewVector builds a vector from parallel name and value slices.
func NewVector(names []string, values []float64) (Vector, error) {
	if len(names) != len(values) {
		return Vector{}, fmt.Errorf("%w: %d names for %d values", common.ErrSchemaMismatch, len(names), len(values))
	}
	return Vector{
		names:  append([]string(nil), names...),
		values: append([]float64(nil), values...),
	}, nil
}

// Len returns the number of features.
func (v Vector) Len() int {
	return len(v.values)
}

// Names returns a copy of the feature names.
func (v Vector) Names() []string {
	return append([]string(nil), v.names...)
}

// Values returns a copy of the feature values.
func (v Vector) Values() []float64 {
	return append([]float64(nil), v.values...)
}

// Get returns the value of the named feature.
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range v.names {
		if n == name {
			return v.values[i], true
		}
	}
	return 0, false
}

// Select returns the values of the requested features in the requested order.
func (v Vector) Select(names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		value, ok := v.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: feature %q not computed", common.ErrSchemaMismatch, name)
		}
		out[i] = value
	}
	return out, nil
}
