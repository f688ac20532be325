// Package features computes the hand-crafted inputs of the DGA classifier.
//
// The feature set is declared once, as a Schema, and consumed by the dataset
// loader, the trainer, the exported artifact and the analyzer.
package features

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
)

// Feature names.
const (
	Length  = "length"
	Entropy = "entropy"
)

// Feature is a named numeric function of a domain string.
type Feature struct {
	compute     func(domain string) float64
	Name        string
	Description string
}

// Schema is an ordered list of features.
type Schema []Feature

// Default is the feature set the detector is trained and queried with.
var Default = Schema{
	{
		Name:        Length,
		Description: "number of characters, dots included",
		compute:     func(domain string) float64 { return float64(CharCount(domain)) },
	},
	{
		Name:        Entropy,
		Description: "Shannon entropy in bits over character frequency",
		compute:     ShannonEntropy,
	},
}

// Names returns the feature names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Compute evaluates a single feature.
func (f Feature) Compute(domain string) float64 {
	return f.compute(domain)
}

// Extract computes every feature of the schema for domain.
func (s Schema) Extract(domain string) (Vector, error) {
	if domain == "" {
		return Vector{}, fmt.Errorf("%w: domain name must not be empty", common.ErrInvalidInput)
	}

	v := Vector{
		names:  s.Names(),
		values: make([]float64, len(s)),
	}
	for i, f := range s {
		v.values[i] = f.compute(domain)
	}
	return v, nil
}

// Extract computes the default feature vector for domain.
func Extract(domain string) (Vector, error) {
	return Default.Extract(domain)
}

// CharCount returns the number of characters in s, counting every code point.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// ShannonEntropy returns the entropy of the character distribution of s in bits.
// The empty string has zero entropy.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}

	// summed in first-seen order; map order would perturb the low bits
	counts := make(map[rune]int)
	var order []rune
	total := 0
	for _, r := range s {
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
		total++
	}

	var entropy float64
	n := float64(total)
	for _, r := range order {
		p := float64(counts[r]) / n
		entropy -= p * math.Log2(p)
	}
	// -0 for single-symbol strings
	if entropy <= 0 {
		return 0
	}
	return entropy
}
