// Package artifact exports a trained leader model as a single self-contained
// zip file and loads it back for scoring.
//
// The archive holds manifest.yaml (identity, feature list, classes, decision
// threshold, leaderboard metrics) and model.json (the model parameters).
package artifact

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/automl"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the archive layout version written by Export.
const FormatVersion = 1

const (
	manifestFile = "manifest.yaml"
	paramsFile   = "model.json"
)

// Metrics are the leader's validation scores.
type Metrics struct {
	AUC     float64 `yaml:"auc"`
	LogLoss float64 `yaml:"logloss"`
	F1      float64 `yaml:"f1"`
}

// Manifest describes an exported model.
type Manifest struct {
	CreatedAt     time.Time `yaml:"created_at"`
	ModelID       string    `yaml:"model_id"`
	Algorithm     string    `yaml:"algorithm"`
	PositiveClass string    `yaml:"positive_class"`
	NegativeClass string    `yaml:"negative_class"`
	Features      []string  `yaml:"features"`
	Metrics       Metrics   `yaml:"metrics"`
	Threshold     float64   `yaml:"threshold"`
	Seed          int64     `yaml:"seed"`
	FormatVersion int       `yaml:"format_version"`
}

func (m Manifest) validate(p automl.Predictor) error {
	if m.FormatVersion != FormatVersion {
		return fmt.Errorf("unsupported artifact format version %d", m.FormatVersion)
	}
	if m.ModelID == "" {
		return fmt.Errorf("manifest has no model id")
	}
	if m.PositiveClass == "" || m.NegativeClass == "" || m.PositiveClass == m.NegativeClass {
		return fmt.Errorf("manifest classes %q/%q are invalid", m.PositiveClass, m.NegativeClass)
	}
	if len(m.Features) != p.NumFeatures() {
		return fmt.Errorf("%w: manifest lists %d features, model expects %d",
			common.ErrSchemaMismatch, len(m.Features), p.NumFeatures())
	}
	if m.Threshold < 0 || m.Threshold > 1 {
		return fmt.Errorf("threshold %v outside [0, 1]", m.Threshold)
	}
	return nil
}

// Export writes model to path, creating the parent directory and replacing
// any existing file atomically.
func Export(path string, model *Model) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifest, err := yaml.Marshal(model.manifest)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	params, err := json.Marshal(model.predictor.Params())
	if err != nil {
		return fmt.Errorf("failed to encode model parameters: %w", err)
	}

	for _, entry := range []struct {
		name string
		data []byte
	}{
		{manifestFile, manifest},
		{paramsFile, params},
	} {
		w, err := zw.Create(entry.name)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", entry.name, err)
		}
		if _, err := w.Write(entry.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temporary artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}

	return nil
}

// Load reads an artifact written by Export. A missing file yields
// common.ErrModelNotFound.
func Load(path string) (*Model, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat model: %w", err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model archive %s: %w", path, err)
	}
	defer func() { _ = zr.Close() }()

	var manifestData, paramsData []byte
	for _, f := range zr.File {
		switch f.Name {
		case manifestFile:
			manifestData, err = readEntry(f)
		case paramsFile:
			paramsData, err = readEntry(f)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	if manifestData == nil || paramsData == nil {
		return nil, fmt.Errorf("model archive %s is incomplete", path)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	var params automl.Params
	if err := json.Unmarshal(paramsData, &params); err != nil {
		return nil, fmt.Errorf("failed to decode model parameters: %w", err)
	}
	predictor, err := params.Predictor()
	if err != nil {
		return nil, fmt.Errorf("invalid model parameters: %w", err)
	}

	return New(manifest, predictor)
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}
