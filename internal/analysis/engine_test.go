package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/features"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/model"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModelPath = "model/DGA_Leader.zip"

type stubScorer struct {
	features   []string
	predictErr error
	prediction model.Prediction
	attrs      model.AttributionSet
}

func (s *stubScorer) ModelID() string { return "GBM_1_AutoML_1" }
func (s *stubScorer) Features() []string {
	if s.features != nil {
		return s.features
	}
	return features.Default.Names()
}
func (s *stubScorer) PositiveClass() string { return "dga" }

func (s *stubScorer) Predict(features.Vector) (model.Prediction, error) {
	return s.prediction, s.predictErr
}

func (s *stubScorer) Contributions(features.Vector) (model.AttributionSet, error) {
	return s.attrs, nil
}

func dgaScorer() *stubScorer {
	return &stubScorer{
		prediction: model.Prediction{
			Label:         "dga",
			Confidence:    0.93,
			Probabilities: map[string]float64{"dga": 0.93, "legit": 0.07},
		},
		attrs: model.AttributionSet{
			Contributions: []model.Contribution{
				{Feature: features.Length, Value: 0.8},
				{Feature: features.Entropy, Value: 1.1},
			},
			Bias: 0.2,
		},
	}
}

type stubGenerator struct {
	err     error
	text    string
	prompts []string
}

func (g *stubGenerator) GeneratePlaybook(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.text, g.err
}

func (g *stubGenerator) Describe() string { return "Google's Gemini model" }

func (g *stubGenerator) CredentialHint() string {
	return "Please ensure your GOOGLE_API_KEY is set correctly."
}

type memoryHistory struct {
	err      error
	analyses []model.Analysis
	mu       sync.Mutex
}

func (h *memoryHistory) SaveAnalysis(_ context.Context, a *model.Analysis) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	a.ID = fmt.Sprintf("analysis-%d", len(h.analyses)+1)
	h.analyses = append(h.analyses, *a)
	return nil
}

func (h *memoryHistory) GetAnalysis(context.Context, string) (*model.Analysis, error) {
	return nil, errors.New("not implemented")
}

func (h *memoryHistory) ListAnalyses(context.Context, service.AnalysisFilter) ([]model.Analysis, error) {
	return h.analyses, nil
}

func (h *memoryHistory) SaveTrainingRun(context.Context, *model.TrainingRun) error { return nil }

func (h *memoryHistory) ListTrainingRuns(context.Context, int) ([]model.TrainingRun, error) {
	return nil, nil
}

func (h *memoryHistory) Migrate(context.Context) error { return nil }
func (h *memoryHistory) Close() error                  { return nil }

func loaderFor(s Scorer) ModelLoader {
	return func(string) (Scorer, error) { return s, nil }
}

func newEngine(t *testing.T, deps Deps) (*Engine, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	deps.Out = &out
	e, err := NewEngine(deps)
	require.NoError(t, err)
	return e, &out
}

func TestNewEngineValidatesDeps(t *testing.T) {
	_, err := NewEngine(Deps{})
	require.Error(t, err)

	_, err = NewEngine(Deps{Out: &bytes.Buffer{}})
	require.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	gen := &stubGenerator{text: "## Containment\n1. Block the domain."}
	history := &memoryHistory{}
	var waited []string
	e, out := newEngine(t, Deps{
		LoadModel: loaderFor(dgaScorer()),
		Playbooks: gen,
		History:   history,
		Wait: func(ctx context.Context, message string, fn func(context.Context) error) error {
			waited = append(waited, message)
			return fn(ctx)
		},
	})

	analysis, err := e.Analyze(context.Background(), Options{Domain: "kq3v9xz7tw.biz", ModelPath: testModelPath})
	require.NoError(t, err)

	text := out.String()
	stages := []string{
		"Analyzing domain: kq3v9xz7tw.biz...",
		"Loading model...",
		"Computing features...",
		"  - Length: 14",
		"  - Entropy: ",
		"Predicting and generating SHAP explanation...",
		"  - Prediction: DGA",
		"  - Confidence: 93.00%",
		"Summarizing SHAP findings...",
		"Domain Analysis Summary:",
		"Generating incident response playbook with Google's Gemini model...",
		"INCIDENT RESPONSE PLAYBOOK",
		"1. Block the domain.",
	}
	last := -1
	for _, stage := range stages {
		idx := strings.Index(text, stage)
		require.GreaterOrEqual(t, idx, 0, "missing %q in output:\n%s", stage, text)
		assert.Greater(t, idx, last, "%q printed out of order", stage)
		last = idx
	}
	assert.Contains(t, text, strings.Repeat("=", 64)+"\n")

	assert.Equal(t, "kq3v9xz7tw.biz", analysis.Domain)
	assert.Equal(t, "GBM_1_AutoML_1", analysis.ModelID)
	assert.Equal(t, "dga", analysis.Prediction.Label)
	assert.True(t, analysis.HasPlaybook())
	assert.Empty(t, analysis.PlaybookError)
	require.Len(t, analysis.Features, 2)
	assert.Equal(t, features.Length, analysis.Features[0].Name)
	assert.InDelta(t, 14, analysis.Features[0].Value, 0)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "--- ANALYSIS SUMMARY ---\n"+analysis.Summary)
	assert.Contains(t, gen.prompts[0], "Registered domain: kq3v9xz7tw.biz")
	assert.Equal(t, []string{"Waiting for the playbook"}, waited)

	require.Len(t, history.analyses, 1)
	assert.Equal(t, "analysis-1", analysis.ID)
}

func TestAnalyzeModelMissing(t *testing.T) {
	gen := &stubGenerator{text: "unused"}
	e, out := newEngine(t, Deps{
		LoadModel: func(path string) (Scorer, error) {
			return nil, fmt.Errorf("%w: %s", common.ErrModelNotFound, path)
		},
		Playbooks: gen,
	})

	analysis, err := e.Analyze(context.Background(), Options{Domain: "google.com", ModelPath: testModelPath})
	require.Error(t, err)
	assert.Nil(t, analysis)
	assert.ErrorIs(t, err, common.ErrModelNotFound)
	assert.Equal(t, common.ExitModelMissing, common.ExitCode(err))

	text := out.String()
	assert.Contains(t, text, "Error: Model file not found at "+testModelPath)
	assert.NotContains(t, text, "Computing features...")
	assert.NotContains(t, text, "Prediction:")
	assert.Empty(t, gen.prompts)
}

func TestAnalyzePlaybookFailure(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("%w: GOOGLE_API_KEY environment variable not set", common.ErrExternalService)}
	history := &memoryHistory{}
	e, out := newEngine(t, Deps{
		LoadModel: loaderFor(dgaScorer()),
		Playbooks: gen,
		History:   history,
	})

	analysis, err := e.Analyze(context.Background(), Options{Domain: "google.com", ModelPath: testModelPath})
	require.NoError(t, err)

	text := out.String()
	summaryAt := strings.Index(text, "Domain Analysis Summary:")
	failureAt := strings.Index(text, "Could not generate playbook. Error: ")
	require.GreaterOrEqual(t, summaryAt, 0)
	require.Greater(t, failureAt, summaryAt)
	assert.Contains(t, text, "GOOGLE_API_KEY environment variable not set")
	assert.Contains(t, text, "Please ensure your GOOGLE_API_KEY is set correctly.")
	assert.NotContains(t, text, "INCIDENT RESPONSE PLAYBOOK")

	assert.False(t, analysis.HasPlaybook())
	assert.Contains(t, analysis.PlaybookError, "GOOGLE_API_KEY")
	require.Len(t, history.analyses, 1)
}

func TestAnalyzeCanceledDuringPlaybook(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e, _ := newEngine(t, Deps{
		LoadModel: loaderFor(dgaScorer()),
		Playbooks: &stubGenerator{},
		Wait: func(context.Context, string, func(context.Context) error) error {
			cancel()
			return context.Canceled
		},
	})

	_, err := e.Analyze(ctx, Options{Domain: "google.com", ModelPath: testModelPath})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeWithoutPlaybook(t *testing.T) {
	e, out := newEngine(t, Deps{LoadModel: loaderFor(dgaScorer())})

	analysis, err := e.Analyze(context.Background(), Options{Domain: "google.com", ModelPath: testModelPath})
	require.NoError(t, err)
	assert.False(t, analysis.HasPlaybook())
	assert.Empty(t, analysis.PlaybookError)
	assert.NotContains(t, out.String(), "Generating incident response playbook")
}

func TestAnalyzeHistoryFailureIsNotFatal(t *testing.T) {
	e, _ := newEngine(t, Deps{
		LoadModel: loaderFor(dgaScorer()),
		History:   &memoryHistory{err: errors.New("disk full")},
	})

	analysis, err := e.Analyze(context.Background(), Options{Domain: "google.com", ModelPath: testModelPath})
	require.NoError(t, err)
	assert.Empty(t, analysis.ID)
}

func TestAnalyzeErrors(t *testing.T) {
	t.Run("empty domain", func(t *testing.T) {
		e, out := newEngine(t, Deps{LoadModel: loaderFor(dgaScorer())})

		_, err := e.Analyze(context.Background(), Options{Domain: "  ", ModelPath: testModelPath})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
		assert.Equal(t, common.ExitInvalidInput, common.ExitCode(err))
		assert.Empty(t, out.String())
	})

	t.Run("prediction failure propagates", func(t *testing.T) {
		scorer := dgaScorer()
		scorer.predictErr = common.ErrSchemaMismatch
		gen := &stubGenerator{text: "unused"}
		e, out := newEngine(t, Deps{LoadModel: loaderFor(scorer), Playbooks: gen})

		_, err := e.Analyze(context.Background(), Options{Domain: "google.com", ModelPath: testModelPath})
		assert.ErrorIs(t, err, common.ErrSchemaMismatch)
		assert.NotContains(t, out.String(), "Summarizing SHAP findings...")
		assert.Empty(t, gen.prompts)
	})

	t.Run("model expects an unknown feature", func(t *testing.T) {
		scorer := dgaScorer()
		scorer.features = []string{features.Length, "vowel_ratio"}
		e, out := newEngine(t, Deps{LoadModel: loaderFor(scorer)})

		_, err := e.Analyze(context.Background(), Options{Domain: "google.com", ModelPath: testModelPath})
		assert.ErrorIs(t, err, common.ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "vowel_ratio")
		assert.Contains(t, out.String(), "Computing features...")
		assert.NotContains(t, out.String(), "Predicting and generating SHAP explanation...")
	})
}
