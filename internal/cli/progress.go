package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/automl"
	"github.com/schollz/progressbar/v3"
)

// TrainingProgress renders model search progress as a progress bar.
type TrainingProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	done   []string
	mu     sync.Mutex
}

// NewTrainingProgress creates a progress reporter writing to w.
func NewTrainingProgress(w io.Writer) *TrainingProgress {
	return &TrainingProgress{writer: w}
}

func (p *TrainingProgress) initProgressBar(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Training candidate models...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// Update matches automl.Progress.
func (p *TrainingProgress) Update(done, total int, entry *automl.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		p.initProgressBar(total)
	}
	if entry != nil {
		p.done = append(p.done, entry.ModelID)
	}
	if err := p.bar.Set(done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar even when the search stopped early.
func (p *TrainingProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}

// Completed returns the ids of models reported so far, in completion order.
func (p *TrainingProgress) Completed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.done...)
}
