package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/Veraticus/overtime-sync/internal/pipeline"
	"github.com/schollz/progressbar/v3"
)

var _ pipeline.Progress = (*StepProgress)(nil)

// StepProgress renders one progress bar per job, advancing on each finished
// step.
type StepProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	mu     sync.Mutex
}

// NewStepProgress creates a progress observer writing to w.
func NewStepProgress(w io.Writer) *StepProgress {
	if w == nil {
		w = os.Stderr
	}
	return &StepProgress{writer: w}
}

// JobStarted implements pipeline.Progress.
func (p *StepProgress) JobStarted(job string, steps int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bar = progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(describe(job, "starting")),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// StepStarted implements pipeline.Progress.
func (p *StepProgress) StepStarted(job string, step pipeline.Step) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		p.bar.Describe(describe(job, string(step)))
	}
}

// StepFinished implements pipeline.Progress.
func (p *StepProgress) StepFinished(_ string, _ pipeline.Step, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || err != nil {
		return
	}
	if addErr := p.bar.Add(1); addErr != nil {
		slog.Warn("Failed to update progress bar", "error", addErr)
	}
}

// JobFinished implements pipeline.Progress.
func (p *StepProgress) JobFinished(job string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		if exitErr := p.bar.Exit(); exitErr != nil {
			slog.Warn("Failed to close progress bar", "error", exitErr)
		}
		p.bar = nil
	}

	line := FormatSuccess(job + " synced")
	if err != nil {
		line = FormatError(job + " failed")
	}
	if _, writeErr := fmt.Fprintln(p.writer, "\n"+line); writeErr != nil {
		slog.Warn("Failed to write job status", "error", writeErr)
	}
}

func describe(job, step string) string {
	return fmt.Sprintf("[cyan][bold]%s[reset] %-16s", job, step)
}
