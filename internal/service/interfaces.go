// Package service defines the interfaces shared between the application layers.
package service

import (
	"context"
	"time"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/model"
)

// HistoryStore defines the contract for persisting analyses and training runs.
type HistoryStore interface {
	// Analysis operations
	SaveAnalysis(ctx context.Context, analysis *model.Analysis) error
	GetAnalysis(ctx context.Context, id string) (*model.Analysis, error)
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error)

	// Training run operations
	SaveTrainingRun(ctx context.Context, run *model.TrainingRun) error
	ListTrainingRuns(ctx context.Context, limit int) ([]model.TrainingRun, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// AnalysisFilter defines filtering options for analysis queries.
type AnalysisFilter struct {
	Domain string
	Label  string
	Limit  int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
