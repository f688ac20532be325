// Package model defines the core domain models used throughout the application.
package model

import "strings"

// BiasTerm is the name the attribution bias is reported under.
const BiasTerm = "BiasTerm"

// Prediction is the class assigned to one feature vector.
type Prediction struct {
	Probabilities map[string]float64
	Label         string
	Confidence    float64 // probability mass of Label
}

// IsPositive reports whether the predicted label is the positive class.
func (p Prediction) IsPositive(positiveClass string) bool {
	return strings.EqualFold(p.Label, positiveClass)
}

// Contribution is the signed attribution of a single feature.
type Contribution struct {
	Feature string
	Value   float64
}

// AttributionSet holds per-feature contributions in schema order plus the
// bias term. Contributions plus Bias add up to the model's raw score.
type AttributionSet struct {
	Contributions []Contribution
	Bias          float64
}

// Get returns the contribution recorded for feature.
func (a AttributionSet) Get(feature string) (float64, bool) {
	for _, c := range a.Contributions {
		if c.Feature == feature {
			return c.Value, true
		}
	}
	return 0, false
}

// Total returns the sum of all contributions and the bias.
func (a AttributionSet) Total() float64 {
	total := a.Bias
	for _, c := range a.Contributions {
		total += c.Value
	}
	return total
}
