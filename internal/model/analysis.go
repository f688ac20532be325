package model

import "time"

// FeatureValue is one computed input feature.
type FeatureValue struct {
	Name  string
	Value float64
}

// Analysis is the persisted outcome of analyzing one domain.
type Analysis struct {
	CreatedAt     time.Time
	ID            string
	Domain        string
	ModelID       string
	Summary       string
	Playbook      string
	PlaybookError string
	Features      []FeatureValue
	Attributions  AttributionSet
	Prediction    Prediction
}

// HasPlaybook reports whether a playbook was generated.
func (a *Analysis) HasPlaybook() bool {
	return a.Playbook != ""
}

// TrainingRun records an exported leader model.
type TrainingRun struct {
	CreatedAt    time.Time
	ID           string
	ModelID      string
	Algorithm    string
	ArtifactPath string
	DatasetPath  string
	AUC          float64
	LogLoss      float64
	Threshold    float64
	Candidates   int
}
