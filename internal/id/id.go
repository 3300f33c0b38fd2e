package id

import (
	"fmt"
	"strconv"
	"strings"
)

const learnedMarker = "learned"

// FormatPatternID returns a curated pattern ID like "amount-001".
func FormatPatternID(category string, seq int) string {
	return fmt.Sprintf("%s-%03d", category, seq)
}

// FormatLearnedID returns a learned pattern ID like "amount-learned-001".
func FormatLearnedID(category string, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", category, learnedMarker, seq)
}

// ParsePatternID parses "amount-001" or "amount-learned-001".
func ParsePatternID(id string) (category string, seq int, learned bool, err error) {
	parts := strings.Split(id, "-")
	switch {
	case len(parts) == 2:
	case len(parts) == 3 && parts[1] == learnedMarker:
		learned = true
	default:
		return "", 0, false, fmt.Errorf("invalid pattern ID format: %q", id)
	}

	category = parts[0]
	if category == "" {
		return "", 0, false, fmt.Errorf("missing category in pattern ID %q", id)
	}

	seq, err = strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid sequence in pattern ID %q: %w", id, err)
	}
	return category, seq, learned, nil
}

// NextSeq returns one more than the highest sequence among ids that share
// the category and origin. Unparseable IDs are ignored.
func NextSeq(ids []string, category string, learned bool) int {
	maxSeq := 0
	for _, s := range ids {
		cat, seq, l, err := ParsePatternID(s)
		if err != nil || cat != category || l != learned {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1
}
