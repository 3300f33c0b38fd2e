package learn

import (
	"strings"

	"github.com/cleared-dev/receipts/internal/detect"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
	"github.com/cleared-dev/receipts/internal/patterns"
)

const maxLabelWords = 4

// LabelHint is text that precedes an amount but matches no known pattern.
type LabelHint struct {
	Label   string
	Line    string
	Amount  string
	Pattern string // suggested expression
}

// DiscoverLabels lists the labels of up to four words written right before
// an amount that no enabled pattern recognizes, one hint per label.
func DiscoverLabels(text string, snap *patterns.Snapshot) []LabelHint {
	var known []patterns.Compiled
	for _, cat := range model.Categories {
		known = append(known, snap.PatternsFor(cat)...)
	}

	seen := make(map[string]bool)
	var hints []LabelHint
	for _, line := range detect.Lines(text) {
		for _, tok := range money.Scan(line, money.Options{}) {
			label := labelWords(line[:tok.Start])
			if len([]rune(label)) < 2 || seen[label] || matchesAny(known, label) {
				continue
			}
			seen[label] = true
			hints = append(hints, LabelHint{
				Label:   label,
				Line:    line,
				Amount:  money.Format(tok.Value),
				Pattern: FlexiblePattern(label),
			})
		}
	}
	return hints
}

// labelWords returns the trailing words of prefix that contain letters,
// stopping at the first word without any.
func labelWords(prefix string) string {
	fields := strings.Fields(strings.TrimRight(prefix, " :=-"))
	var words []string
	for i := len(fields) - 1; i >= 0 && len(words) < maxLabelWords; i-- {
		if !hasLetter(fields[i]) {
			break
		}
		words = append([]string{fields[i]}, words...)
	}
	return strings.ToUpper(strings.Join(words, " "))
}

func matchesAny(known []patterns.Compiled, label string) bool {
	for _, p := range known {
		if p.Regexp.MatchString(label) {
			return true
		}
	}
	return false
}
