package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/goproj/goproj/internal/orchestrator"
)

// Reporter prints batch progress and notices as plain lines. Colors are
// used only when the writer is a terminal.
type Reporter struct {
	w       io.Writer
	mu      sync.Mutex
	percent float64

	title lipgloss.Style
	bar   lipgloss.Style
	info  lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
}

var _ orchestrator.Reporter = (*Reporter)(nil)

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:     w,
		title: r.NewStyle().Bold(true),
		bar:   r.NewStyle().Faint(true),
		info:  r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("3")),
		err:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

func (r *Reporter) Begin(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.percent = 0
	_, _ = fmt.Fprintln(r.w, r.title.Render(title))
}

func (r *Reporter) Progress(increment float64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.percent += increment
	if r.percent > 100 {
		r.percent = 100
	}
	_, _ = fmt.Fprintf(r.w, "%s %s\n", r.bar.Render(fmt.Sprintf("[%3.0f%%]", r.percent)), message)
}

func (r *Reporter) Notify(level orchestrator.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var line string
	switch level {
	case orchestrator.LevelError:
		line = r.err.Render("✗ " + message)
	case orchestrator.LevelWarn:
		line = r.warn.Render("! " + message)
	default:
		line = r.info.Render("✓ " + message)
	}
	_, _ = fmt.Fprintln(r.w, line)
}

func (r *Reporter) End() {}
