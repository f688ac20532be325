package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/model"
)

// SaveTrainingRun records an exported leader model.
func (s *SQLiteStorage) SaveTrainingRun(ctx context.Context, run *model.TrainingRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTrainingRun(run); err != nil {
		return err
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO training_runs (
			id, model_id, algorithm, auc, logloss, threshold,
			candidates, artifact_path, dataset_path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.ModelID,
		run.Algorithm,
		run.AUC,
		run.LogLoss,
		run.Threshold,
		run.Candidates,
		run.ArtifactPath,
		nullString(run.DatasetPath),
		run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save training run: %w", err)
	}
	return nil
}

// ListTrainingRuns returns the most recent training runs first.
func (s *SQLiteStorage) ListTrainingRuns(ctx context.Context, limit int) ([]model.TrainingRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model_id, algorithm, auc, logloss, threshold,
			candidates, artifact_path, dataset_path, created_at
		FROM training_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.TrainingRun
	for rows.Next() {
		var run model.TrainingRun
		var datasetPath sql.NullString
		if err := rows.Scan(
			&run.ID,
			&run.ModelID,
			&run.Algorithm,
			&run.AUC,
			&run.LogLoss,
			&run.Threshold,
			&run.Candidates,
			&run.ArtifactPath,
			&datasetPath,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		run.DatasetPath = datasetPath.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating training runs: %w", err)
	}
	return runs, nil
}
