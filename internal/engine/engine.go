// Package engine wires detection, cross-validation, diagnostics and learning
// into the receipt parsing entry points.
package engine

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/receipts/internal/detect"
	"github.com/cleared-dev/receipts/internal/diagnostics"
	"github.com/cleared-dev/receipts/internal/learn"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
	"github.com/cleared-dev/receipts/internal/patterns"
	"github.com/cleared-dev/receipts/internal/validate"
)

// Options configures an Engine.
type Options struct {
	Detect detect.Config
	Policy validate.Policy
	Learn  learn.Config
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Detect: detect.DefaultConfig(),
		Policy: validate.DefaultPolicy(),
		Learn:  learn.Config{ContextWindow: learn.DefaultContextWindow},
	}
}

// Engine parses receipts against one catalogue. It is safe for concurrent use.
type Engine struct {
	catalogue *patterns.Catalogue
	tracker   *diagnostics.Tracker
	learner   *learn.Learner
	opts      Options
}

// New creates an Engine. A nil tracker gets a private one without metrics.
func New(c *patterns.Catalogue, tracker *diagnostics.Tracker, opts Options) *Engine {
	if tracker == nil {
		tracker = diagnostics.NewTracker(c, nil)
	}
	return &Engine{
		catalogue: c,
		tracker:   tracker,
		learner:   learn.New(c, opts.Learn),
		opts:      opts,
	}
}

// Catalogue returns the engine's pattern catalogue.
func (e *Engine) Catalogue() *patterns.Catalogue { return e.catalogue }

// Tracker returns the engine's diagnostics tracker.
func (e *Engine) Tracker() *diagnostics.Tracker { return e.tracker }

// Parse reads one receipt against the current catalogue snapshot and records
// the outcome in the diagnostics tracker. A missing amount is a normal result,
// reported through ParseResult.Found.
func (e *Engine) Parse(text string) model.ParseResult {
	res := ParseSnapshot(text, e.catalogue.Snapshot(), e.opts)
	e.tracker.Observe(res)

	attrs := []any{
		"found", res.Found,
		"method", res.MethodTag(),
		"confidence", res.Level,
		"reliable", res.Reliable,
		"candidates", len(res.Candidates),
	}
	if res.Found {
		attrs = append(attrs, "amount", money.Format(res.Amount))
	}
	slog.Debug("receipt parsed", attrs...)
	return res
}

// Evaluate parses text like Parse but records nothing.
func (e *Engine) Evaluate(text string) model.ParseResult {
	return ParseSnapshot(text, e.catalogue.Snapshot(), e.opts)
}

// ParseSnapshot is the pure parse: the same text and snapshot always give
// the same result and nothing is recorded.
func ParseSnapshot(text string, snap *patterns.Snapshot, opts Options) model.ParseResult {
	d := detect.Run(text, snap, opts.Detect)
	res := validate.CrossValidate(d.Candidates, d.Ran, opts.Policy)
	res.Date, res.DateFound = d.Date, d.DateFound
	res.Merchant = d.Merchant
	res.KeyLines = d.KeyLines
	return res
}

// Correct learns from a user correction of a previous parse of text.
func (e *Engine) Correct(text string, detected model.ParseResult, corrected decimal.Decimal, source string) (learn.Proposal, error) {
	return e.learner.Propose(text, detected, corrected, source)
}

// Discover lists amount labels in text that no enabled pattern recognizes.
func (e *Engine) Discover(text string) []learn.LabelHint {
	return learn.DiscoverLabels(text, e.catalogue.Snapshot())
}
