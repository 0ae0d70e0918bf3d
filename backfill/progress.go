package backfill

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports the progress of a backfill run round by round.
// The number of pending rows is not known up front, so progress is counted
// rather than measured against a total.
type ProgressTracker struct {
	writer    io.Writer
	label     string
	rounds    int
	rows      int
	updated   int
	failed    int
	startTime time.Time
	started   bool
	mu        sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// label: prefix identifying the instance, e.g. "instance 1/4"
func NewProgressTracker(writer io.Writer, label string) *ProgressTracker {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressTracker{
		writer: writer,
		label:  label,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.rounds = 0
	p.rows = 0
	p.updated = 0
	p.failed = 0
}

// Round records a completed round and reports it.
func (p *ProgressTracker) Round(updated, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.rounds++
	p.rows += updated + failed
	p.updated += updated
	p.failed += failed
	p.report()
}

// Finish prints the final summary.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	elapsed := time.Since(p.startTime)
	fmt.Fprintf(p.writer, "%s: done after %d rounds, %d updated, %d failed in %v\n",
		p.label, p.rounds, p.updated, p.failed, elapsed.Round(time.Millisecond))
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.rows) / elapsed.Seconds()
	}

	fmt.Fprintf(p.writer, "%s: round %d, %d rows (%d updated, %d failed) - %.1f rows/s\n",
		p.label, p.rounds, p.rows, p.updated, p.failed, rate)
}
