package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
)

const progressWidth = 40

// ProgressBar draws a bubbles progress bar on a terminal, redrawing the
// current line in place. It implements sheetsql.Progress.
type ProgressBar struct {
	out     io.Writer
	bar     progress.Model
	mu      sync.Mutex
	label   string
	total   int
	current int
	drawn   int // last percentage drawn, -1 before the first draw
}

// NewProgressBar creates a progress bar writing to out.
func NewProgressBar(out io.Writer) *ProgressBar {
	return &ProgressBar{
		out:   out,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
		drawn: -1,
	}
}

// Start begins a new bar.
func (p *ProgressBar) Start(label string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.label = label
	p.total = total
	p.current = 0
	p.drawn = -1
	p.draw()
}

// Increment advances the current bar by one step.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current < p.total {
		p.current++
	}
	p.draw()
}

// Done completes the bar and moves to the next line.
func (p *ProgressBar) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.draw()
	fmt.Fprintln(p.out)
}

// percent returns the completed fraction; an empty bar counts as complete
func (p *ProgressBar) percent() float64 {
	if p.total <= 0 {
		return 1
	}
	return float64(p.current) / float64(p.total)
}

// draw redraws the line when the integer percentage changed
func (p *ProgressBar) draw() {
	pct := int(p.percent() * 100)
	if pct == p.drawn {
		return
	}
	p.drawn = pct
	fmt.Fprintf(p.out, "\r%s %s %d/%d", LabelStyle.Render(p.label), p.bar.ViewAs(p.percent()), p.current, p.total)
}
