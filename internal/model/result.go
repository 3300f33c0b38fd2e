package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoAmountFound is reported by ParseResult.Err when no method produced a candidate.
var ErrNoAmountFound = errors.New("no amount found")

// Method identifies one of the fixed detection strategies.
type Method string

const (
	MethodNone     Method = ""
	MethodPattern  Method = "A" // amount pattern match
	MethodPayment  Method = "B" // payment line detection
	MethodLargest  Method = "C" // largest currency-shaped number
	MethodFallback Method = "D" // last resort, disabled by default
)

// Methods lists every method in precedence order.
var Methods = []Method{MethodPattern, MethodPayment, MethodLargest, MethodFallback}

// Valid reports whether m is one of the four detection methods.
func (m Method) Valid() bool {
	switch m {
	case MethodPattern, MethodPayment, MethodLargest, MethodFallback:
		return true
	}
	return false
}

// Rank orders methods by intrinsic trust; lower is more trusted.
func (m Method) Rank() int {
	for i, x := range Methods {
		if x == m {
			return i
		}
	}
	return len(Methods)
}

// Label returns a readable name for logs and CLI output.
func (m Method) Label() string {
	switch m {
	case MethodPattern:
		return "A-PATTERNS"
	case MethodPayment:
		return "B-PAYMENT"
	case MethodLargest:
		return "C-LARGEST"
	case MethodFallback:
		return "D-FALLBACK"
	}
	return "NONE"
}

// Candidate is a single amount proposal produced by one detection method.
type Candidate struct {
	Value      decimal.Decimal
	Method     Method
	PatternIDs []string // patterns that produced the value, empty for C and D
	Priority   int      // highest priority among PatternIDs
	Context    string   // line the value was read from
	Line       int
}

// ConfidenceLevel buckets the agreement ratio.
type ConfidenceLevel string

const (
	ConfidenceExcellent ConfidenceLevel = "excellent"
	ConfidenceGood      ConfidenceLevel = "good"
	ConfidencePartial   ConfidenceLevel = "partial"
	ConfidencePoor      ConfidenceLevel = "poor"
)

// LevelFor maps an agreement ratio onto a confidence level.
func LevelFor(ratio float64) ConfidenceLevel {
	switch {
	case ratio >= 0.9:
		return ConfidenceExcellent
	case ratio >= 0.7:
		return ConfidenceGood
	case ratio >= 0.5:
		return ConfidencePartial
	default:
		return ConfidencePoor
	}
}

// ParseResult is the engine's output for one receipt.
type ParseResult struct {
	Amount     decimal.Decimal
	Found      bool
	Confidence float64
	Level      ConfidenceLevel
	Method     Method   // most trusted method in the winning group
	Agreeing   []Method // every method in the winning group, precedence order
	Ran        []Method // methods executed for this parse
	Reliable   bool
	Candidates []Candidate

	Date      time.Time
	DateFound bool
	Merchant  string
	KeyLines  []string
}

// Err returns ErrNoAmountFound when the result carries no amount.
func (r ParseResult) Err() error {
	if !r.Found {
		return ErrNoAmountFound
	}
	return nil
}

// MethodTag joins the agreeing methods, e.g. "A+B".
func (r ParseResult) MethodTag() string {
	if len(r.Agreeing) == 0 {
		return "NONE"
	}
	tag := ""
	for i, m := range r.Agreeing {
		if i > 0 {
			tag += "+"
		}
		tag += string(m)
	}
	return tag
}

// WinningPatterns returns the pattern IDs of candidates that carry the final amount.
func (r ParseResult) WinningPatterns() []string {
	if !r.Found {
		return nil
	}
	var ids []string
	for _, c := range r.Candidates {
		if c.Value.Equal(r.Amount) {
			ids = append(ids, c.PatternIDs...)
		}
	}
	return ids
}
