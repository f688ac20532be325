package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidAnalysis = errors.New("invalid analysis")
	ErrInvalidRun      = errors.New("invalid training run")
	ErrNotFound        = errors.New("record not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateAnalysis(a *model.Analysis) error {
	if a == nil {
		return fmt.Errorf("%w: analysis", ErrNilParameter)
	}
	if strings.TrimSpace(a.Domain) == "" {
		return fmt.Errorf("%w: domain is required", ErrInvalidAnalysis)
	}
	if a.ModelID == "" {
		return fmt.Errorf("%w: model id is required", ErrInvalidAnalysis)
	}
	if a.Prediction.Label == "" {
		return fmt.Errorf("%w: prediction label is required", ErrInvalidAnalysis)
	}
	if !isProbability(a.Prediction.Confidence) {
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidAnalysis, a.Prediction.Confidence)
	}
	return nil
}

func validateTrainingRun(run *model.TrainingRun) error {
	if run == nil {
		return fmt.Errorf("%w: training run", ErrNilParameter)
	}
	if run.ModelID == "" {
		return fmt.Errorf("%w: model id is required", ErrInvalidRun)
	}
	if run.ArtifactPath == "" {
		return fmt.Errorf("%w: artifact path is required", ErrInvalidRun)
	}
	if !isProbability(run.AUC) {
		return fmt.Errorf("%w: auc %v out of range", ErrInvalidRun, run.AUC)
	}
	if run.Candidates < 1 {
		return fmt.Errorf("%w: at least one candidate is required", ErrInvalidRun)
	}
	return nil
}

func isProbability(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 1
}
