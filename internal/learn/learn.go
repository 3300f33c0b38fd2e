// Package learn turns user corrections into proposed amount patterns.
package learn

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/receipts/internal/detect"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
	"github.com/cleared-dev/receipts/internal/patterns"
)

// DefaultContextWindow is how many bytes before the value are used as label.
const DefaultContextWindow = 24

var (
	// ErrNoCorrection means the corrected amount equals the detected one.
	ErrNoCorrection = errors.New("amount already detected")
	// ErrNoLearnableContext means the text offers nothing to learn from,
	// usually because OCR misread the amount itself.
	ErrNoLearnableContext = errors.New("no learnable context")
)

// NoContextError carries the reason a correction could not be learned.
type NoContextError struct {
	Value  decimal.Decimal
	Reason string
}

func (e *NoContextError) Error() string {
	return fmt.Sprintf("%s for %s: %s", ErrNoLearnableContext, money.Format(e.Value), e.Reason)
}

func (e *NoContextError) Unwrap() error {
	return ErrNoLearnableContext
}

// Config tunes the learner.
type Config struct {
	ContextWindow int
	AutoApprove   bool // enable proposals without review
}

// Learner proposes patterns into a catalogue.
type Learner struct {
	catalogue *patterns.Catalogue
	cfg       Config
}

// New creates a Learner writing into c.
func New(c *patterns.Catalogue, cfg Config) *Learner {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultContextWindow
	}
	return &Learner{catalogue: c, cfg: cfg}
}

// Proposal is the outcome of a learned correction.
type Proposal struct {
	PatternID  string
	Expression string
	Label      string // text the expression was built from
	Line       int
	Context    string
	Enabled    bool
}

type occurrence struct {
	line int
	tok  money.Token
}

// Propose looks for corrected in text and adds a pattern built from the label
// preceding it. source identifies the receipt for the audit trail.
func (l *Learner) Propose(text string, detected model.ParseResult, corrected decimal.Decimal, source string) (Proposal, error) {
	if !corrected.IsPositive() {
		return Proposal{}, fmt.Errorf("corrected amount must be positive, got %s", corrected)
	}
	corrected = corrected.Round(2)
	if detected.Found && detected.Amount.Equal(corrected) {
		return Proposal{}, ErrNoCorrection
	}

	lines := detect.Lines(text)
	occs := findValue(lines, corrected)
	if len(occs) == 0 {
		slog.Warn("corrected amount not in text", "amount", money.Format(corrected), "source", source)
		return Proposal{}, &NoContextError{Value: corrected, Reason: "value not in text"}
	}

	occ := l.closestToAnchor(lines, occs)
	label, ctxLine := l.labelBefore(lines, occ)
	expr := FlexiblePattern(label)
	if expr == "" {
		return Proposal{}, &NoContextError{Value: corrected, Reason: "no label before value"}
	}

	pid, err := l.catalogue.AddLearned(patterns.Proposal{
		Expression:  expr,
		Category:    model.CategoryAmount,
		Description: fmt.Sprintf("learned from %q", strings.TrimSpace(label)),
		LearnedFrom: source,
		Approved:    l.cfg.AutoApprove,
	})
	if err != nil {
		return Proposal{}, err
	}
	return Proposal{
		PatternID:  pid,
		Expression: expr,
		Label:      strings.TrimSpace(label),
		Line:       occ.line,
		Context:    lines[ctxLine],
		Enabled:    l.cfg.AutoApprove,
	}, nil
}

// findValue returns every position where value is written, using the same
// separator rules as detection.
func findValue(lines []string, value decimal.Decimal) []occurrence {
	var out []occurrence
	for i, line := range lines {
		for _, tok := range money.Scan(line, money.Options{SpaceDecimal: true}) {
			if tok.Value.Equal(value) {
				out = append(out, occurrence{line: i, tok: tok})
			}
		}
	}
	return out
}

// closestToAnchor picks the occurrence nearest a line matched by an enabled
// amount pattern, preferring higher priority anchors, then earlier text.
func (l *Learner) closestToAnchor(lines []string, occs []occurrence) occurrence {
	type anchor struct{ line, priority int }
	var anchors []anchor
	amount := l.catalogue.Snapshot().PatternsFor(model.CategoryAmount)
	for i, line := range lines {
		for _, p := range amount {
			if p.Regexp.MatchString(line) {
				anchors = append(anchors, anchor{line: i, priority: p.Priority})
				break // patterns come highest priority first
			}
		}
	}
	if len(anchors) == 0 {
		return occs[0]
	}

	best, bestDist, bestPrio := 0, -1, 0
	for i, o := range occs {
		for _, a := range anchors {
			dist := o.line - a.line
			if dist < 0 {
				dist = -dist
			}
			if bestDist < 0 || dist < bestDist || (dist == bestDist && a.priority > bestPrio) {
				best, bestDist, bestPrio = i, dist, a.priority
			}
		}
	}
	return occs[best]
}

// labelBefore returns the text preceding the occurrence, limited to the
// context window. A value alone on its line takes its label from the line above.
func (l *Learner) labelBefore(lines []string, o occurrence) (string, int) {
	label := tail(lines[o.line][:o.tok.Start], l.cfg.ContextWindow)
	if hasLetter(label) || o.line == 0 {
		return label, o.line
	}
	return tail(lines[o.line-1], l.cfg.ContextWindow), o.line - 1
}

// tail keeps the last n bytes of s, dropping a word cut by the limit.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	cut := len(s) - n
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	if s[cut-1] != ' ' {
		if sp := strings.IndexByte(s[cut:], ' '); sp >= 0 {
			cut += sp + 1
		} else {
			return s[cut:]
		}
	}
	return strings.TrimSpace(s[cut:])
}

// FlexiblePattern builds an expression from a label: words keep only letters
// and digits, are joined by \s*, and a trailing ":" or "=" becomes optional.
// Words without letters, such as prices or dates, are dropped.
func FlexiblePattern(label string) string {
	var parts []string
	for _, w := range strings.Fields(label) {
		if !hasLetter(w) {
			continue
		}
		cleaned := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, w)
		parts = append(parts, strings.ToUpper(cleaned))
	}
	if len(parts) == 0 {
		return ""
	}
	expr := strings.Join(parts, `\s*`)
	if t := strings.TrimSpace(label); strings.HasSuffix(t, ":") || strings.HasSuffix(t, "=") {
		expr += `\s*[=:]?`
	}
	return expr
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
