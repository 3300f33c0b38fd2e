// Package diagnostics tracks pattern reliability and detection rates.
package diagnostics

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/patterns"
)

// Tracker records the outcome of each parse against the catalogue's pattern
// counters. Its statistics are reported, never fed back into detection.
type Tracker struct {
	catalogue *patterns.Catalogue
	metrics   *Metrics // optional

	parses   atomic.Int64
	detected atomic.Int64
	reliable atomic.Int64
}

// NewTracker creates a Tracker for c. metrics may be nil.
func NewTracker(c *patterns.Catalogue, metrics *Metrics) *Tracker {
	return &Tracker{catalogue: c, metrics: metrics}
}

// Observe credits every pattern in the winning group with a success and
// every other matched pattern with a failure.
func (t *Tracker) Observe(res model.ParseResult) {
	t.parses.Add(1)
	if res.Found {
		t.detected.Add(1)
	}
	if res.Reliable {
		t.reliable.Add(1)
	}

	outcome := make(map[string]bool)
	var order []string
	for _, c := range res.Candidates {
		won := res.Found && c.Value.Equal(res.Amount)
		for _, pid := range c.PatternIDs {
			prev, seen := outcome[pid]
			if !seen {
				order = append(order, pid)
			}
			outcome[pid] = prev || won
		}
	}
	for _, pid := range order {
		t.record(pid, outcome[pid])
	}

	if t.metrics != nil {
		t.metrics.observeParse(res, t.DetectionRate())
	}
}

func (t *Tracker) record(pid string, succeeded bool) {
	if err := t.catalogue.RecordOutcome(pid, succeeded); err != nil {
		if errors.Is(err, patterns.ErrPatternNotFound) {
			slog.Debug("outcome for unknown pattern", "id", pid)
			return
		}
		slog.Warn("recording pattern outcome", "id", pid, "error", err)
		return
	}
	if t.metrics != nil {
		if p, ok := t.catalogue.Pattern(pid); ok {
			t.metrics.observePattern(p.Category, succeeded)
		}
	}
}

// Parses returns how many results were observed.
func (t *Tracker) Parses() int64 { return t.parses.Load() }

// Detected returns how many observed results carried an amount.
func (t *Tracker) Detected() int64 { return t.detected.Load() }

// Reliable returns how many observed results were reliable.
func (t *Tracker) Reliable() int64 { return t.reliable.Load() }

// DetectionRate returns found/observed, or 0 before any parse.
func (t *Tracker) DetectionRate() float64 {
	total := t.parses.Load()
	if total == 0 {
		return 0
	}
	return float64(t.detected.Load()) / float64(total)
}

// ReliableRate returns reliable/observed, or 0 before any parse.
func (t *Tracker) ReliableRate() float64 {
	total := t.parses.Load()
	if total == 0 {
		return 0
	}
	return float64(t.reliable.Load()) / float64(total)
}
