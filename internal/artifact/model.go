package artifact

import (
	"fmt"
	"time"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/automl"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/features"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/model"
)

// Model is a loaded, read-only classifier.
type Model struct {
	predictor automl.Predictor
	manifest  Manifest
}

// New pairs a predictor with its manifest.
func New(manifest Manifest, predictor automl.Predictor) (*Model, error) {
	if err := manifest.validate(predictor); err != nil {
		return nil, err
	}
	return &Model{manifest: manifest, predictor: predictor}, nil
}

// FromLeader builds the exportable model for a leaderboard entry.
func FromLeader(leader automl.Entry, featureNames []string, positive, negative string, seed int64) (*Model, error) {
	return New(Manifest{
		FormatVersion: FormatVersion,
		ModelID:       leader.ModelID,
		Algorithm:     string(leader.Algorithm),
		Features:      append([]string(nil), featureNames...),
		PositiveClass: positive,
		NegativeClass: negative,
		Threshold:     leader.Threshold,
		Metrics: Metrics{
			AUC:     leader.AUC,
			LogLoss: leader.LogLoss,
			F1:      leader.F1,
		},
		Seed:      seed,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}, leader.Predictor)
}

// Manifest returns a copy of the model's manifest.
func (m *Model) Manifest() Manifest {
	out := m.manifest
	out.Features = append([]string(nil), m.manifest.Features...)
	return out
}

// ModelID returns the leaderboard id of the model.
func (m *Model) ModelID() string { return m.manifest.ModelID }

// Features returns the feature names the model was trained on.
func (m *Model) Features() []string { return append([]string(nil), m.manifest.Features...) }

// PositiveClass returns the label the model detects.
func (m *Model) PositiveClass() string { return m.manifest.PositiveClass }

// Margin returns the raw model score of v.
func (m *Model) Margin(v features.Vector) (float64, error) {
	x, err := v.Select(m.manifest.Features)
	if err != nil {
		return 0, err
	}
	return m.predictor.Margin(x), nil
}

// Predict classifies v. The positive class is predicted when its probability
// reaches the model's threshold.
func (m *Model) Predict(v features.Vector) (model.Prediction, error) {
	x, err := v.Select(m.manifest.Features)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("failed to prepare features: %w", err)
	}

	pos := m.predictor.Probability(x)
	neg := 1 - pos
	p := model.Prediction{
		Probabilities: map[string]float64{
			m.manifest.PositiveClass: pos,
			m.manifest.NegativeClass: neg,
		},
	}
	if pos >= m.manifest.Threshold {
		p.Label, p.Confidence = m.manifest.PositiveClass, pos
	} else {
		p.Label, p.Confidence = m.manifest.NegativeClass, neg
	}
	return p, nil
}

// Contributions returns the Shapley attribution of each feature of v on the
// raw score scale, in the model's feature order, plus the bias term.
func (m *Model) Contributions(v features.Vector) (model.AttributionSet, error) {
	x, err := v.Select(m.manifest.Features)
	if err != nil {
		return model.AttributionSet{}, fmt.Errorf("failed to prepare features: %w", err)
	}

	phi, bias := m.predictor.Contributions(x)
	set := model.AttributionSet{
		Contributions: make([]model.Contribution, len(phi)),
		Bias:          bias,
	}
	for i, value := range phi {
		set.Contributions[i] = model.Contribution{Feature: m.manifest.Features[i], Value: value}
	}
	return set, nil
}
