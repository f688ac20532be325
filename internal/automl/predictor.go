package automl

import (
	"fmt"
	"math"
)

// maxShapleyFeatures bounds the exact subset enumeration used for trees.
const maxShapleyFeatures = 16

// Predictor is a trained binomial model.
type Predictor interface {
	Algorithm() Algorithm
	NumFeatures() int
	// Margin returns the raw score: log-odds for GBM and GLM, the positive
	// class probability for DRF.
	Margin(x []float64) float64
	// Probability returns P(positive | x).
	Probability(x []float64) float64
	// Contributions returns one Shapley value per feature and the bias term.
	// Their sum equals Margin(x).
	Contributions(x []float64) ([]float64, float64)
	// Params returns the serializable form of the model.
	Params() Params
}

// Params is the serializable form of a Predictor. Exactly one of Linear and
// Ensemble is set.
type Params struct {
	Linear   *LinearModel   `json:"linear,omitempty"`
	Ensemble *EnsembleModel `json:"ensemble,omitempty"`
}

// Predictor validates p and returns the model it describes.
func (p Params) Predictor() (Predictor, error) {
	switch {
	case p.Linear != nil && p.Ensemble == nil:
		if err := p.Linear.validate(); err != nil {
			return nil, err
		}
		return p.Linear, nil
	case p.Ensemble != nil && p.Linear == nil:
		if err := p.Ensemble.validate(); err != nil {
			return nil, err
		}
		return p.Ensemble, nil
	default:
		return nil, fmt.Errorf("model parameters must describe exactly one model")
	}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func logit(p float64) float64 {
	p = clamp(p, 1e-15, 1-1e-15)
	return math.Log(p / (1 - p))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
