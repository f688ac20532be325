package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/cli"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/features"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/model"
)

const playbookBanner = " INCIDENT RESPONSE PLAYBOOK "

// Engine runs analyses.
type Engine struct {
	deps Deps
	now  func() time.Time
}

// NewEngine creates a new analysis engine with the provided dependencies.
func NewEngine(deps Deps) (*Engine, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if deps.Prompts == nil {
		prompts, err := NewPromptBuilder()
		if err != nil {
			return nil, err
		}
		deps.Prompts = prompts
	}
	if deps.Wait == nil {
		deps.Wait = runDirectly
	}
	return &Engine{deps: deps, now: time.Now}, nil
}

// Options configures a single analysis.
type Options struct {
	Domain    string
	ModelPath string
}

// Analyze runs the pipeline for one domain. Every stage announces itself on
// the output writer before it runs. Errors before the summary abort the run;
// a playbook failure is reported and recorded but not returned.
func (e *Engine) Analyze(ctx context.Context, opts Options) (*model.Analysis, error) {
	domain := opts.Domain
	if strings.TrimSpace(domain) == "" {
		return nil, common.NewUserError("a domain name is required", fmt.Errorf("%w: empty domain", common.ErrInvalidInput))
	}

	e.printf("\nAnalyzing domain: %s...\n", domain)

	e.printf("Loading model...\n")
	scorer, err := e.deps.LoadModel(opts.ModelPath)
	if err != nil {
		if errors.Is(err, common.ErrModelNotFound) {
			e.printf("%s\n", cli.StyleError("Error: Model file not found at "+opts.ModelPath))
		}
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	slog.Debug("Model loaded", "model_id", scorer.ModelID(), "path", opts.ModelPath)

	e.printf("Computing features...\n")
	vector, err := features.Extract(domain)
	if err != nil {
		return nil, fmt.Errorf("failed to compute features: %w", err)
	}
	if _, err := vector.Select(scorer.Features()); err != nil {
		return nil, fmt.Errorf("model %s cannot score this domain: %w", scorer.ModelID(), err)
	}
	for i, name := range vector.Names() {
		e.printf("  - %s: %s\n", displayName(name), strconv.FormatFloat(vector.Values()[i], 'f', -1, 64))
	}
	info := features.Describe(domain)
	if info.Registered != "" {
		e.printf("%s\n", cli.StyleSubtle(fmt.Sprintf("  - Registered domain: %s (suffix %s)", info.Registered, info.PublicSuffix)))
	}

	e.printf("Predicting and generating SHAP explanation...\n")
	prediction, err := scorer.Predict(vector)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}
	attributions, err := scorer.Contributions(vector)
	if err != nil {
		return nil, fmt.Errorf("failed to compute contributions: %w", err)
	}
	positive := prediction.IsPositive(scorer.PositiveClass())
	e.printf("  - Prediction: %s\n", cli.StyleLabel(strings.ToUpper(prediction.Label), positive))
	e.printf("  - Confidence: %s\n", formatPercent(prediction.Confidence))

	e.printf("Summarizing SHAP findings...\n")
	summary := RenderSummary(SummaryInput{
		Domain:        domain,
		PositiveClass: scorer.PositiveClass(),
		Vector:        vector,
		Attributions:  attributions,
		Prediction:    prediction,
	})
	e.printf("%s\n", summary)

	analysis := &model.Analysis{
		CreatedAt:    e.now().UTC(),
		Domain:       domain,
		ModelID:      scorer.ModelID(),
		Summary:      summary,
		Features:     featureValues(vector),
		Attributions: attributions,
		Prediction:   prediction,
	}

	if e.deps.Playbooks != nil {
		if err := e.playbook(ctx, analysis, &info); err != nil {
			return nil, err
		}
	}

	e.record(ctx, analysis)
	return analysis, nil
}

// playbook fills in the playbook or the reason it is missing. Only a
// canceled context is returned as an error.
func (e *Engine) playbook(ctx context.Context, analysis *model.Analysis, info *features.DomainInfo) error {
	gen := e.deps.Playbooks
	e.printf("Generating incident response playbook with %s...\n", gen.Describe())

	data := PromptData{Summary: analysis.Summary}
	if info.Registered != "" {
		data.Context = info
	}
	prompt, err := e.deps.Prompts.BuildPlaybookPrompt(data)
	if err != nil {
		return fmt.Errorf("failed to build playbook prompt: %w", err)
	}

	var text string
	err = e.deps.Wait(ctx, "Waiting for the playbook", func(ctx context.Context) error {
		var genErr error
		text, genErr = gen.GeneratePlaybook(ctx, prompt)
		return genErr
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("playbook generation canceled: %w", ctxErr)
		}
		slog.Warn("Playbook generation failed", "domain", analysis.Domain, "error", err)
		analysis.PlaybookError = err.Error()
		e.printf("\n%s\n", cli.StyleError(fmt.Sprintf("Could not generate playbook. Error: %v", err)))
		if hint := gen.CredentialHint(); hint != "" {
			e.printf("%s\n", hint)
		}
		return nil
	}

	analysis.Playbook = text
	rule := strings.Repeat("=", 20)
	e.printf("\n%s\n", cli.StyleTitle(rule+playbookBanner+rule))
	e.printf("%s\n", text)
	e.printf("%s\n\n", cli.StyleTitle(strings.Repeat("=", 2*len(rule)+len(playbookBanner))))
	return nil
}

// record saves the analysis on a best-effort basis.
func (e *Engine) record(ctx context.Context, analysis *model.Analysis) {
	if e.deps.History == nil {
		return
	}
	if err := e.deps.History.SaveAnalysis(ctx, analysis); err != nil {
		slog.Warn("Failed to record analysis", "domain", analysis.Domain, "error", err)
		return
	}
	slog.Debug("Analysis recorded", "id", analysis.ID)
}

func (e *Engine) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(e.deps.Out, format, args...); err != nil {
		slog.Debug("Failed to write output", "error", err)
	}
}

func featureValues(v features.Vector) []model.FeatureValue {
	names, values := v.Names(), v.Values()
	out := make([]model.FeatureValue, len(names))
	for i := range names {
		out[i] = model.FeatureValue{Name: names[i], Value: values[i]}
	}
	return out
}

func displayName(feature string) string {
	if feature == "" {
		return feature
	}
	return strings.ToUpper(feature[:1]) + feature[1:]
}
