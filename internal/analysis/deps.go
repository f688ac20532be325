// Package analysis runs the single-domain analysis pipeline: features,
// prediction, attribution, summary and the incident response playbook.
package analysis

import (
	"context"
	"fmt"
	"io"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/features"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/model"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/service"
)

// Scorer is a loaded model that classifies and explains feature vectors.
type Scorer interface {
	ModelID() string
	Features() []string
	PositiveClass() string
	Predict(v features.Vector) (model.Prediction, error)
	Contributions(v features.Vector) (model.AttributionSet, error)
}

// ModelLoader opens the model stored at path.
type ModelLoader func(path string) (Scorer, error)

// PlaybookGenerator turns a prompt into an incident response playbook.
type PlaybookGenerator interface {
	GeneratePlaybook(ctx context.Context, prompt string) (string, error)
	// Describe names the backing service for progress output.
	Describe() string
	// CredentialHint is shown after a failed generation.
	CredentialHint() string
}

// WaitFunc runs fn while telling the user that something is in progress.
type WaitFunc func(ctx context.Context, message string, fn func(ctx context.Context) error) error

// Deps contains the dependencies of the analysis engine.
type Deps struct {
	// Out receives the stage output.
	Out io.Writer
	// LoadModel opens the model artifact.
	LoadModel ModelLoader
	// Playbooks generates playbooks; nil disables the playbook stage.
	Playbooks PlaybookGenerator
	// History records completed analyses; nil disables it.
	History service.HistoryStore
	// Prompts builds the playbook prompt; a default builder is used when nil.
	Prompts *PromptBuilder
	// Wait wraps the playbook request; it runs directly when nil.
	Wait WaitFunc
}

// Validate ensures all required dependencies are provided.
func (d *Deps) Validate() error {
	if d.Out == nil {
		return fmt.Errorf("output writer dependency is required")
	}
	if d.LoadModel == nil {
		return fmt.Errorf("model loader dependency is required")
	}
	return nil
}

func runDirectly(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
