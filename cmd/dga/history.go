package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/cli"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/model"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/service"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/storage"
	"github.com/spf13/cobra"
)

const historyTimeFormat = "2006-01-02 15:04"

func historyCmd() *cobra.Command {
	var (
		filter service.AnalysisFilter
		runs   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analyses and training runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistory(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer closeHistory(store)

			if runs {
				return listTrainingRuns(cmd.Context(), cmd.OutOrStdout(), store, filter.Limit)
			}
			return listAnalyses(cmd.Context(), cmd.OutOrStdout(), store, filter)
		},
	}

	cmd.Flags().StringVar(&filter.Domain, "domain", "", "only analyses of this domain")
	cmd.Flags().StringVar(&filter.Label, "label", "", "only analyses with this predicted label")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "maximum number of rows")
	cmd.Flags().BoolVar(&runs, "runs", false, "list training runs instead of analyses")

	cmd.AddCommand(historyShowCmd())
	return cmd
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the summary and playbook of a recorded analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer closeHistory(store)

			a, err := store.GetAnalysis(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return common.NewUserError(fmt.Sprintf("no analysis with id %s", args[0]),
						fmt.Errorf("%w: %w", common.ErrInvalidInput, err))
				}
				return err
			}
			printAnalysis(cmd.OutOrStdout(), a)
			return nil
		},
	}
}

func listAnalyses(ctx context.Context, out io.Writer, store service.HistoryStore, filter service.AnalysisFilter) error {
	analyses, err := store.ListAnalyses(ctx, filter)
	if err != nil {
		return err
	}
	if len(analyses) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No analyses recorded yet"))
		return nil
	}

	header := fmt.Sprintf("%-36s %-16s %-32s %-6s %-10s %s", "id", "when", "domain", "label", "confidence", "playbook")
	fmt.Fprintln(out, cli.TableHeaderStyle.Render(header))
	for _, a := range analyses {
		playbook := "no"
		if a.HasPlaybook() {
			playbook = "yes"
		}
		label := fmt.Sprintf("%-6s", a.Prediction.Label)
		line := fmt.Sprintf("%-36s %-16s %-32s %s %-10s %s",
			a.ID, a.CreatedAt.Local().Format(historyTimeFormat), truncate(a.Domain, 32),
			cli.StyleLabel(label, strings.EqualFold(a.Prediction.Label, settings.Dataset.PositiveClass)),
			fmt.Sprintf("%.2f%%", a.Prediction.Confidence*100), playbook)
		fmt.Fprintln(out, cli.TableCellStyle.Render(line))
	}
	return nil
}

func listTrainingRuns(ctx context.Context, out io.Writer, store service.HistoryStore, limit int) error {
	runs, err := store.ListTrainingRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No training runs recorded yet"))
		return nil
	}

	header := fmt.Sprintf("%-16s %-22s %-6s %-8s %-8s %-10s %s", "when", "model_id", "algo", "auc", "logloss", "candidates", "artifact")
	fmt.Fprintln(out, cli.TableHeaderStyle.Render(header))
	for _, r := range runs {
		line := fmt.Sprintf("%-16s %-22s %-6s %-8.4f %-8.4f %-10d %s",
			r.CreatedAt.Local().Format(historyTimeFormat), r.ModelID, r.Algorithm, r.AUC, r.LogLoss, r.Candidates, r.ArtifactPath)
		fmt.Fprintln(out, cli.TableCellStyle.Render(line))
	}
	return nil
}

func printAnalysis(out io.Writer, a *model.Analysis) {
	fmt.Fprintln(out, cli.StyleTitle(fmt.Sprintf("Analysis %s", a.ID)))
	fmt.Fprintf(out, "Domain: %s\nModel: %s\nRecorded: %s\n\n", a.Domain, a.ModelID, a.CreatedAt.Local().Format(historyTimeFormat))
	fmt.Fprintln(out, a.Summary)
	switch {
	case a.HasPlaybook():
		fmt.Fprintln(out)
		fmt.Fprintln(out, a.Playbook)
	case a.PlaybookError != "":
		fmt.Fprintln(out, cli.StyleSubtle("\nPlaybook failed: "+a.PlaybookError))
	}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
