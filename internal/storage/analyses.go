package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/model"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/service"
)

const defaultListLimit = 20

// SaveAnalysis inserts an analysis, assigning an ID and timestamp when unset.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, analysis *model.Analysis) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAnalysis(analysis); err != nil {
		return err
	}

	if analysis.ID == "" {
		analysis.ID = uuid.NewString()
	}
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now().UTC()
	}

	probabilities, err := json.Marshal(analysis.Prediction.Probabilities)
	if err != nil {
		return fmt.Errorf("failed to encode probabilities: %w", err)
	}
	features, err := json.Marshal(analysis.Features)
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}
	contributions, err := json.Marshal(analysis.Attributions.Contributions)
	if err != nil {
		return fmt.Errorf("failed to encode contributions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (
			id, domain, model_id, label, confidence, probabilities,
			features, contributions, bias, summary, playbook, playbook_error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		analysis.ID,
		analysis.Domain,
		analysis.ModelID,
		analysis.Prediction.Label,
		analysis.Prediction.Confidence,
		string(probabilities),
		string(features),
		string(contributions),
		analysis.Attributions.Bias,
		analysis.Summary,
		nullString(analysis.Playbook),
		nullString(analysis.PlaybookError),
		analysis.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// GetAnalysis retrieves an analysis by ID.
func (s *SQLiteStorage) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, analysisSelect+` WHERE id = ?`, id)
	analysis, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: analysis %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// ListAnalyses returns analyses newest first.
func (s *SQLiteStorage) ListAnalyses(ctx context.Context, filter service.AnalysisFilter) ([]model.Analysis, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := analysisSelect
	var conditions []string
	var args []any
	if filter.Domain != "" {
		conditions = append(conditions, "domain = ?")
		args = append(args, filter.Domain)
	}
	if filter.Label != "" {
		conditions = append(conditions, "LOWER(label) = LOWER(?)")
		args = append(args, filter.Label)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	return queryAnalyses(ctx, s.db, query, args...)
}

const analysisSelect = `
	SELECT id, domain, model_id, label, confidence, probabilities,
		features, contributions, bias, summary, playbook, playbook_error, created_at
	FROM analyses`

type rowScanner interface {
	Scan(dest ...any) error
}

func queryAnalyses(ctx context.Context, q queryable, query string, args ...any) ([]model.Analysis, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var analyses []model.Analysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *analysis)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}
	return analyses, nil
}

func scanAnalysis(row rowScanner) (*model.Analysis, error) {
	var (
		a                                      model.Analysis
		probabilities, features, contributions string
		playbook, playbookError                sql.NullString
	)

	err := row.Scan(
		&a.ID,
		&a.Domain,
		&a.ModelID,
		&a.Prediction.Label,
		&a.Prediction.Confidence,
		&probabilities,
		&features,
		&contributions,
		&a.Attributions.Bias,
		&a.Summary,
		&playbook,
		&playbookError,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}

	if err := json.Unmarshal([]byte(probabilities), &a.Prediction.Probabilities); err != nil {
		return nil, fmt.Errorf("failed to decode probabilities for %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(features), &a.Features); err != nil {
		return nil, fmt.Errorf("failed to decode features for %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(contributions), &a.Attributions.Contributions); err != nil {
		return nil, fmt.Errorf("failed to decode contributions for %s: %w", a.ID, err)
	}
	a.Playbook = playbook.String
	a.PlaybookError = playbookError.String

	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
