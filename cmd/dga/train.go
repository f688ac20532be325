package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/artifact"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/automl"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/cli"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/config"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/dataset"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/features"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/model"
	"github.com/spf13/cobra"
)

type trainOptions struct {
	datasetPath  string
	modelPath    string
	includeAlgos []string
	maxRuntime   time.Duration
	seed         int64
	noHistory    bool
}

func trainCmd() *cobra.Command {
	var opts trainOptions

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a DGA classifier and export the leader model",
		Long: `Load the labeled dataset, run a time-boxed search over GBM, DRF and GLM
candidates, and export the best model by validation AUC as a single artifact.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := *settings
			flags := cmd.Flags()
			if flags.Changed("dataset") {
				s.Dataset.Path = config.ExpandPath(opts.datasetPath)
			}
			if flags.Changed("model") {
				s.Model.Path = config.ExpandPath(opts.modelPath)
			}
			if flags.Changed("include-algos") {
				s.Train.IncludeAlgos = opts.includeAlgos
			}
			if flags.Changed("max-runtime") {
				s.Train.MaxRuntime = opts.maxRuntime
			}
			if flags.Changed("seed") {
				s.Train.Seed = opts.seed
			}
			if opts.noHistory {
				s.History.Enabled = false
			}
			if err := s.Validate(); err != nil {
				return err
			}
			return runTrain(cmd.Context(), cmd.OutOrStdout(), &s, isTerminal(os.Stdout))
		},
	}

	cmd.Flags().StringVar(&opts.datasetPath, "dataset", "", "training CSV (default from dataset.path)")
	cmd.Flags().StringVar(&opts.modelPath, "model", "", "artifact output path (default from model.path)")
	cmd.Flags().StringSliceVar(&opts.includeAlgos, "include-algos", nil, "model families to search (GBM, DRF, GLM)")
	cmd.Flags().DurationVar(&opts.maxRuntime, "max-runtime", 0, "search time budget")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record the training run")

	return cmd
}

func runTrain(ctx context.Context, out io.Writer, s *config.Settings, showProgress bool) error {
	handler := cli.NewInterruptHandler(os.Stderr, "Training interrupted, no model was exported.")
	ctx = handler.HandleInterrupts(ctx)
	defer handler.Stop()

	algos, err := automl.ParseAlgorithms(s.Train.IncludeAlgos)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Importing data...")
	frame, err := dataset.Load(s.Dataset.Path, dataset.Options{
		LabelColumn:  s.Dataset.LabelColumn,
		DomainColumn: s.Dataset.DomainColumn,
		Schema:       features.Default,
	})
	if err != nil {
		return err
	}
	y, negative, err := frame.Binary(s.Dataset.PositiveClass)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  - Rows: %d\n", frame.Len())
	fmt.Fprintf(out, "  - Classes: %s\n", strings.Join(frame.Classes(), ", "))
	fmt.Fprintf(out, "  - Features: %s\n", strings.Join(frame.Features, ", "))
	if len(frame.Derived) > 0 {
		fmt.Fprintf(out, "%s\n", cli.StyleSubtle("  - Derived from the domain column: "+strings.Join(frame.Derived, ", ")))
	}

	fmt.Fprintln(out, "Running AutoML...")
	var progress automl.Progress
	var bar *cli.TrainingProgress
	if showProgress {
		bar = cli.NewTrainingProgress(out)
		progress = bar.Update
	}
	result, err := automl.Run(ctx, automl.Data{X: frame.X, Y: y}, automl.Config{
		IncludeAlgos:       algos,
		MaxRuntime:         s.Train.MaxRuntime,
		Seed:               s.Train.Seed,
		Parallelism:        s.Train.Parallelism,
		ValidationFraction: s.Train.ValidationFraction,
	}, progress)
	var completed []string
	if bar != nil {
		bar.Finish()
		completed = bar.Completed()
	}
	if err != nil {
		return searchError(err, handler.WasInterrupted(), completed)
	}

	leader, _ := result.Leaderboard.Leader()
	fmt.Fprintln(out, "AutoML training complete. Leader model:")
	fmt.Fprintln(out, renderLeaderboard(result))

	m, err := artifact.FromLeader(leader, frame.Features, s.Dataset.PositiveClass, negative, s.Train.Seed)
	if err != nil {
		return fmt.Errorf("failed to package leader model: %w", err)
	}

	fmt.Fprintf(out, "Exporting leader model to %s...\n", s.Model.Path)
	if err := artifact.Export(s.Model.Path, m); err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatSuccess("Model saved to: "+s.Model.Path))

	if s.History.Enabled {
		recordTrainingRun(ctx, s, &model.TrainingRun{
			ModelID:      leader.ModelID,
			Algorithm:    string(leader.Algorithm),
			ArtifactPath: s.Model.Path,
			DatasetPath:  s.Dataset.Path,
			AUC:          leader.AUC,
			LogLoss:      leader.LogLoss,
			Threshold:    leader.Threshold,
			Candidates:   len(result.Leaderboard),
		})
	}

	return nil
}

// searchError explains a failed search. An interrupted search names the
// candidates that had already finished, since none of them was exported.
func searchError(err error, interrupted bool, completed []string) error {
	if !interrupted {
		return err
	}
	msg := "training interrupted, no model was exported"
	if len(completed) > 0 {
		msg = fmt.Sprintf("%s (%d finished: %s)", msg, len(completed), strings.Join(completed, ", "))
	}
	return common.NewUserError(msg, err)
}

func recordTrainingRun(ctx context.Context, s *config.Settings, run *model.TrainingRun) {
	store, err := openHistory(ctx, s)
	if err != nil {
		common.LogError(nil, err, "Failed to open history", common.Fields{"path": s.History.Path})
		return
	}
	defer closeHistory(store)

	if err := store.SaveTrainingRun(ctx, run); err != nil {
		common.LogError(nil, err, "Failed to record training run", common.Fields{"model_id": run.ModelID})
		return
	}
	slog.Debug("Training run recorded", "id", run.ID)
}

func renderLeaderboard(result *automl.Result) string {
	var b strings.Builder
	header := fmt.Sprintf("%-22s %-6s %-8s %-8s %-8s %-9s", "model_id", "algo", "auc", "logloss", "f1", "threshold")
	b.WriteString(cli.TableHeaderStyle.Render(header))
	b.WriteString("\n")
	for i, e := range result.Leaderboard {
		line := fmt.Sprintf("%-22s %-6s %-8.4f %-8.4f %-8.4f %-9.4f",
			e.ModelID, e.Algorithm, e.AUC, e.LogLoss, e.F1, e.Threshold)
		if i == 0 {
			line = cli.BoldStyle.Render(line)
		}
		b.WriteString(cli.TableCellStyle.Render(line))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s", cli.StyleSubtle(fmt.Sprintf("%d trained, %d skipped (time budget), %d failed in %s",
		len(result.Leaderboard), result.Skipped, result.Failed, result.Elapsed.Round(time.Millisecond))))
	return b.String()
}
