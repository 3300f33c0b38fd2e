// Package detect runs the fixed set of amount detection methods over OCR text.
package detect

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
	"github.com/cleared-dev/receipts/internal/patterns"
)

// DefaultWindow is how many bytes after a label are searched for its amount.
const DefaultWindow = 32

// Config selects and tunes the detection methods.
type Config struct {
	Methods         []model.Method // A, B and C; D is controlled by FallbackEnabled
	FallbackEnabled bool
	Window          int
	NextLine        bool // look at the following line when a label line has no amount
}

// DefaultConfig runs A, B and C and keeps the fallback off.
func DefaultConfig() Config {
	return Config{
		Methods:  []model.Method{model.MethodPattern, model.MethodPayment, model.MethodLargest},
		Window:   DefaultWindow,
		NextLine: true,
	}
}

// Enabled returns the methods that will run, in precedence order.
func (c Config) Enabled() []model.Method {
	var out []model.Method
	for _, m := range model.Methods {
		if m == model.MethodFallback {
			if c.FallbackEnabled {
				out = append(out, m)
			}
			continue
		}
		if slices.Contains(c.Methods, m) {
			out = append(out, m)
		}
	}
	return out
}

func (c Config) window() int {
	if c.Window <= 0 {
		return DefaultWindow
	}
	return c.Window
}

type methodFunc func(lines []string, snap *patterns.Snapshot, cfg Config) []model.Candidate

var methodTable = map[model.Method]methodFunc{
	model.MethodPattern:  detectPatterns,
	model.MethodPayment:  detectPayments,
	model.MethodLargest:  detectLargest,
	model.MethodFallback: detectFallback,
}

// Detection is everything read from one receipt text before cross-validation.
type Detection struct {
	Lines      []string
	Ran        []model.Method
	Candidates []model.Candidate
	KeyLines   []string
	Date       time.Time
	DateFound  bool
	Merchant   string
}

// Run executes every enabled method against text. It only reads snap, so
// concurrent calls sharing a snapshot are safe.
func Run(text string, snap *patterns.Snapshot, cfg Config) Detection {
	lines := Lines(text)
	d := Detection{Lines: lines}
	for _, m := range cfg.Enabled() {
		cands := methodTable[m](lines, snap, cfg)
		slog.Debug("detection method finished", "method", m.Label(), "candidates", len(cands))
		d.Ran = append(d.Ran, m)
		d.Candidates = append(d.Candidates, cands...)
	}
	d.KeyLines = KeyLines(lines, snap)
	d.Date, d.DateFound = DetectDate(lines)
	d.Merchant = DetectMerchant(lines, snap.Merchants())
	return d
}

// Lines splits OCR text into trimmed, non-empty lines with runs of
// whitespace collapsed and digit look-alikes repaired.
func Lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			continue
		}
		out = append(out, money.CleanDigits(l))
	}
	return out
}
