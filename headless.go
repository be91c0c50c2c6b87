package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"golang.org/x/term"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.FgHiBlack)
)

// progressPrinter shows job updates: a spinner on a terminal, one line per
// message otherwise.
type progressPrinter struct {
	out  io.Writer
	spin *spinner.Spinner
	last string
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	p := &progressPrinter{out: out}
	if isTerminal(out) {
		p.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
		p.spin.Start()
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *progressPrinter) update(message string, ratio float64) {
	if message == "" || message == p.last {
		return
	}
	p.last = message
	line := message
	if ratio > 0 && ratio < 1 {
		line = fmt.Sprintf("%s (%d%%)", message, int(ratio*100))
	}
	if p.spin == nil {
		dimColor.Fprintln(p.out, line)
		return
	}
	p.spin.Lock()
	p.spin.Suffix = " " + line
	p.spin.Unlock()
}

func (p *progressPrinter) stop() {
	if p.spin != nil {
		p.spin.Stop()
	}
}

// runJob runs fn as a job of kind and blocks until it finishes, printing its
// progress to out.
func runJob[T any](ctx context.Context, out io.Writer, kind job.Kind, fn job.Func[T]) (T, error) {
	var zero T
	p := newProgressPrinter(out)
	defer p.stop()

	h := job.Spawn(ctx, kind, fn)
	e, err := job.Wait(ctx, h, func(e job.Event[T]) {
		p.update(e.Message, e.Ratio)
	})
	if err != nil {
		return zero, err
	}
	if e.Type == job.EventFailure {
		return zero, e.Err
	}
	return e.Value, nil
}
