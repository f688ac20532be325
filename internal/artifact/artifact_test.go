package artifact

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/automl"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearModel(t *testing.T, threshold float64) *Model {
	t.Helper()

	m, err := New(Manifest{
		FormatVersion: FormatVersion,
		ModelID:       "GLM_1_AutoML_1",
		Algorithm:     "GLM",
		Features:      []string{features.Length, features.Entropy},
		PositiveClass: "dga",
		NegativeClass: "legit",
		Threshold:     threshold,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, &automl.LinearModel{
		Weights:   []float64{0.5, 2},
		Means:     []float64{12, 3},
		Intercept: -12,
	})
	require.NoError(t, err)
	return m
}

func vector(t *testing.T, domain string) features.Vector {
	t.Helper()
	v, err := features.Extract(domain)
	require.NoError(t, err)
	return v
}

func TestPredict(t *testing.T) {
	m := linearModel(t, 0.5)

	t.Run("short low entropy name is legit", func(t *testing.T) {
		p, err := m.Predict(vector(t, "google.com"))
		require.NoError(t, err)

		assert.Equal(t, "legit", p.Label)
		assert.InDelta(t, p.Probabilities["legit"], p.Confidence, 0)
		assert.InDelta(t, 1.0, p.Probabilities["legit"]+p.Probabilities["dga"], 1e-12)
		assert.Greater(t, p.Confidence, 0.5)
	})

	t.Run("long random name is dga", func(t *testing.T) {
		p, err := m.Predict(vector(t, "x8kq2vzt7wmp4jd9.biz"))
		require.NoError(t, err)
		assert.Equal(t, "dga", p.Label)
		assert.InDelta(t, p.Probabilities["dga"], p.Confidence, 0)
	})

	t.Run("threshold decides the label", func(t *testing.T) {
		strict := linearModel(t, 1)
		p, err := strict.Predict(vector(t, "x8kq2vzt7wmp4jd9.biz"))
		require.NoError(t, err)
		assert.Equal(t, "legit", p.Label)
	})

	t.Run("deterministic", func(t *testing.T) {
		v := vector(t, "abc123.net")
		a, err := m.Predict(v)
		require.NoError(t, err)
		b, err := m.Predict(v)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestContributions(t *testing.T) {
	m := linearModel(t, 0.5)
	v := vector(t, "google.com")

	set, err := m.Contributions(v)
	require.NoError(t, err)

	require.Len(t, set.Contributions, 2)
	assert.Equal(t, features.Length, set.Contributions[0].Feature)
	assert.Equal(t, features.Entropy, set.Contributions[1].Feature)
	assert.InDelta(t, 0.5*(10-12), set.Contributions[0].Value, 1e-12)

	margin, err := m.Margin(v)
	require.NoError(t, err)
	assert.InDelta(t, margin, set.Total(), 1e-12)

	again, err := m.Contributions(v)
	require.NoError(t, err)
	assert.Equal(t, set, again)
}

func TestSchemaMismatch(t *testing.T) {
	m := linearModel(t, 0.5)
	other, err := features.NewVector([]string{"length", "digits"}, []float64{10, 0})
	require.NoError(t, err)

	_, err = m.Predict(other)
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)

	_, err = New(Manifest{
		FormatVersion: FormatVersion,
		ModelID:       "GLM_1",
		Features:      []string{"length"},
		PositiveClass: "dga",
		NegativeClass: "legit",
	}, &automl.LinearModel{Weights: []float64{1, 1}, Means: []float64{0, 0}})
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}

func TestExportLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model", "DGA_Leader.zip")
	m := linearModel(t, 0.42)

	require.NoError(t, Export(path, m))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Manifest(), loaded.Manifest())

	for _, domain := range []string{"google.com", "qx7vz0kpl3.info", "a"} {
		v := vector(t, domain)

		want, err := m.Predict(v)
		require.NoError(t, err)
		got, err := loaded.Predict(v)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		wantSet, err := m.Contributions(v)
		require.NoError(t, err)
		gotSet, err := loaded.Contributions(v)
		require.NoError(t, err)
		assert.Equal(t, wantSet, gotSet)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestExportOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "DGA_Leader.zip")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	require.NoError(t, Export(path, linearModel(t, 0.3)))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, loaded.Manifest().Threshold, 0)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "model", "DGA_Leader.zip"))
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrModelNotFound)
		assert.Equal(t, common.ExitModelMissing, common.ExitCode(err))
	})

	t.Run("not a zip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "DGA_Leader.zip")
		require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

		_, err := Load(path)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrModelNotFound)
	})
}

func TestExportTrainedLeader(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	data := automl.Data{}
	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			data.X = append(data.X, []float64{18 + 3*rng.NormFloat64(), 3.5 + 0.2*rng.NormFloat64()})
			data.Y = append(data.Y, 1)
		} else {
			data.X = append(data.X, []float64{10 + 2*rng.NormFloat64(), 2.7 + 0.3*rng.NormFloat64()})
			data.Y = append(data.Y, 0)
		}
	}

	result, err := automl.Run(context.Background(), data, automl.Config{
		IncludeAlgos: []automl.Algorithm{automl.GBM},
		MaxRuntime:   time.Minute,
		Seed:         1,
		MaxModels:    1,
	}, nil)
	require.NoError(t, err)
	leader, ok := result.Leaderboard.Leader()
	require.True(t, ok)

	m, err := FromLeader(leader, features.Default.Names(), "dga", "legit", 1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "DGA_Leader.zip")
	require.NoError(t, Export(path, m))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "GBM_1_AutoML_1", loaded.ModelID())
	assert.Equal(t, "GBM", loaded.Manifest().Algorithm)

	v := vector(t, "kj3hq9vx0z7t.com")
	want, err := m.Contributions(v)
	require.NoError(t, err)
	got, err := loaded.Contributions(v)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	margin, err := loaded.Margin(v)
	require.NoError(t, err)
	assert.InDelta(t, margin, got.Total(), 1e-9)
}
