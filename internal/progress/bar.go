package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const barWidth = 40

// Bar renders a single-line progress bar for a batch of files.
type Bar struct {
	out       io.Writer
	label     string
	total     int
	current   int
	failed    int
	mu        sync.Mutex
	startTime time.Time
	lastPrint time.Time
	done      bool
}

// New creates a progress bar writing to out.
func New(out io.Writer, label string, total int) *Bar {
	return &Bar{
		out:       out,
		label:     label,
		total:     total,
		startTime: time.Now(),
	}
}

// IsTerminal reports whether f is an interactive terminal. Callers only draw
// a bar when it is.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Increment records one finished file.
func (b *Bar) Increment(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current++
	if failed {
		b.failed++
	}

	now := time.Now()
	if now.Sub(b.lastPrint) > 200*time.Millisecond || b.current >= b.total {
		b.render()
		b.lastPrint = now
	}
}

// Finish draws the final state and ends the line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.done {
		b.render()
		fmt.Fprintln(b.out)
		b.done = true
	}
}

func (b *Bar) render() {
	if b.done || b.total == 0 {
		return
	}

	filled := barWidth * b.current / b.total
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(b.out, "\r%s [%s] %d/%d", b.label, bar, b.current, b.total)
	if b.failed > 0 {
		fmt.Fprintf(b.out, " (%d failed)", b.failed)
	}
	fmt.Fprintf(b.out, " - %s   ", formatDuration(time.Since(b.startTime)))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
