package automl

import (
	"fmt"
)

// Link maps an ensemble's margin to a probability.
type Link string

// Supported links.
const (
	LinkLogit    Link = "logit"
	LinkIdentity Link = "identity"
)

// EnsembleModel is an additive tree ensemble:
// Margin(x) = Init + Scale * sum(tree(x)).
type EnsembleModel struct {
	Algo     Algorithm `json:"algorithm"`
	Link     Link      `json:"link"`
	Trees    []Tree    `json:"trees"`
	Init     float64   `json:"init"`
	Scale    float64   `json:"scale"`
	Features int       `json:"features"`
}

// Algorithm implements Predictor.
func (e *EnsembleModel) Algorithm() Algorithm { return e.Algo }

// NumFeatures implements Predictor.
func (e *EnsembleModel) NumFeatures() int { return e.Features }

// Params implements Predictor.
func (e *EnsembleModel) Params() Params { return Params{Ensemble: e} }

// Margin implements Predictor.
func (e *EnsembleModel) Margin(x []float64) float64 {
	var sum float64
	for _, t := range e.Trees {
		sum += t.Predict(x)
	}
	return e.Init + e.Scale*sum
}

// Probability implements Predictor.
func (e *EnsembleModel) Probability(x []float64) float64 {
	margin := e.Margin(x)
	if e.Link == LinkLogit {
		return sigmoid(margin)
	}
	return clamp(margin, 0, 1)
}

// Contributions implements Predictor. Shapley values are additive, so the
// ensemble's values are the scaled sum of each tree's.
func (e *EnsembleModel) Contributions(x []float64) ([]float64, float64) {
	phi := make([]float64, e.Features)
	bias := e.Init
	for _, t := range e.Trees {
		treePhi, expected := t.shapley(x, e.Features)
		for i, v := range treePhi {
			phi[i] += e.Scale * v
		}
		bias += e.Scale * expected
	}
	return phi, bias
}

func (e *EnsembleModel) validate() error {
	if e.Algo != GBM && e.Algo != DRF {
		return fmt.Errorf("ensemble algorithm %q not supported", e.Algo)
	}
	if e.Link != LinkLogit && e.Link != LinkIdentity {
		return fmt.Errorf("unknown link %q", e.Link)
	}
	if e.Features < 1 || e.Features > maxShapleyFeatures {
		return fmt.Errorf("ensemble feature count %d outside 1..%d", e.Features, maxShapleyFeatures)
	}
	if len(e.Trees) == 0 {
		return fmt.Errorf("ensemble has no trees")
	}
	for i, t := range e.Trees {
		if err := t.validate(e.Features); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
