package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 24

// Progress tallies finished renders for a batch: textures written, skipped
// and failed, plus the nodes their graphs evaluated. When enabled it redraws
// a one-line status after every result.
type Progress struct {
	mu      sync.Mutex
	out     io.Writer
	start   time.Time
	enabled bool

	total    int
	finished int
	failed   int
	upToDate int
	nodes    int
	badNodes int
	slowest  Result
}

// NewProgress creates a tracker for total jobs, drawing to stderr when
// enabled.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		out:     os.Stderr,
		start:   time.Now(),
		enabled: enabled,
		total:   total,
	}
}

// Record adds one finished job.
func (p *Progress) Record(r Result) {
	p.mu.Lock()
	p.finished++
	switch {
	case r.Err != nil:
		p.failed++
	case r.UpToDate:
		p.upToDate++
	default:
		p.nodes += r.Nodes
		p.badNodes += r.FailedNodes
		if r.Elapsed > p.slowest.Elapsed {
			p.slowest = r
		}
	}
	line := p.status()
	p.mu.Unlock()

	if p.enabled {
		fmt.Fprint(p.out, "\x1b[2K\r"+line)
	}
}

// Callback adapts p to Config.OnProgress.
func (p *Progress) Callback() ProgressFunc {
	return p.Record
}

// Done redraws the final status and ends the line.
func (p *Progress) Done() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	line := p.status()
	p.mu.Unlock()
	fmt.Fprintf(p.out, "\x1b[2K\r%s in %s\n", line, time.Since(p.start).Round(time.Millisecond))
}

// status formats the bar line. p.mu must be held.
func (p *Progress) status() string {
	pct := 100
	if p.total > 0 {
		pct = min(100, p.finished*100/p.total)
	}
	filled := pct * barWidth / 100
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %3d%% %d/%d textures, %d nodes", bar, pct, p.finished, p.total, p.nodes)
	if p.badNodes > 0 {
		fmt.Fprintf(&b, " (%d failed)", p.badNodes)
	}
	if p.upToDate > 0 {
		fmt.Fprintf(&b, ", %d up to date", p.upToDate)
	}
	if p.failed > 0 {
		fmt.Fprintf(&b, ", %d errors", p.failed)
	}
	return b.String()
}

// Summary describes the whole batch in one sentence for the log.
func (p *Progress) Summary() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	rendered := p.finished - p.failed - p.upToDate
	s := fmt.Sprintf("Rendered %d/%d textures, %d up to date, %d failed; evaluated %d nodes, %d failed",
		rendered, p.total, p.upToDate, p.failed, p.nodes, p.badNodes)
	if p.slowest.Elapsed > 0 {
		s += fmt.Sprintf("; slowest %s (%s)", p.slowest.Job.Name, p.slowest.Elapsed.Round(time.Millisecond))
	}
	return s + fmt.Sprintf("; took %s", time.Since(p.start).Round(time.Millisecond))
}
