package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/analysis"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/artifact"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/config"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/llm"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/storage"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type analyzeOptions struct {
	domain     string
	modelPath  string
	noPlaybook bool
	noHistory  bool
	noSpinner  bool
}

func analyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify a domain, explain the verdict and draft a playbook",
		Example: `  dga analyze --domain kq3v9z7j1x5f8g2h.info
  dga analyze -d google.com --no-playbook`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := *settings
			if cmd.Flags().Changed("model") {
				s.Model.Path = config.ExpandPath(opts.modelPath)
			}
			if opts.noPlaybook {
				s.Playbook.Enabled = false
			}
			if opts.noHistory {
				s.History.Enabled = false
			}
			if err := s.Validate(); err != nil {
				return err
			}
			spinner := !opts.noSpinner && isTerminal(os.Stderr)
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), &s, opts.domain, spinner)
		},
	}

	cmd.Flags().StringVarP(&opts.domain, "domain", "d", "", "domain name to analyze")
	cmd.Flags().StringVar(&opts.modelPath, "model", "", "model artifact (default from model.path)")
	cmd.Flags().BoolVar(&opts.noPlaybook, "no-playbook", false, "skip the incident response playbook")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record the analysis")
	cmd.Flags().BoolVar(&opts.noSpinner, "no-spinner", false, "disable the progress spinner")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, s *config.Settings, domain string, spinner bool) error {
	deps := analysis.Deps{
		Out:       out,
		LoadModel: loadScorer,
	}

	if s.Playbook.Enabled {
		deps.Playbooks = llm.NewPlaybookGenerator(llm.Config{
			Provider:    s.Playbook.Provider,
			Model:       s.Playbook.Model,
			MaxRetries:  s.Playbook.MaxRetries,
			RetryDelay:  s.Playbook.RetryDelay,
			RateLimit:   s.Playbook.RateLimit,
			Temperature: s.Playbook.Temperature,
			MaxTokens:   s.Playbook.MaxTokens,
		}, slog.Default())
	}

	if s.History.Enabled {
		store, err := openHistory(ctx, s)
		if err != nil {
			common.LogError(nil, err, "History disabled for this run", common.Fields{"path": s.History.Path})
		} else {
			defer closeHistory(store)
			deps.History = store
		}
	}

	if spinner {
		deps.Wait = func(ctx context.Context, message string, fn func(ctx context.Context) error) error {
			return tui.RunWithSpinner(ctx, os.Stderr, message, fn)
		}
	}

	engine, err := analysis.NewEngine(deps)
	if err != nil {
		return err
	}

	_, err = engine.Analyze(ctx, analysis.Options{
		Domain:    domain,
		ModelPath: s.Model.Path,
	})
	return err
}

func loadScorer(path string) (analysis.Scorer, error) {
	m, err := artifact.Load(path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func openHistory(ctx context.Context, s *config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.Open(ctx, s.History.Path)
	if err != nil {
		return nil, err
	}
	slog.Debug("History opened", "path", store.Path())
	return store, nil
}

func closeHistory(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Warn("Failed to close history", "path", store.Path(), "error", err)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
