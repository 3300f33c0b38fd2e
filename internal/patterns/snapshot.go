package patterns

import (
	"regexp"
	"slices"

	"github.com/cleared-dev/receipts/internal/model"
)

// Compiled is an enabled pattern ready for evaluation.
type Compiled struct {
	ID         string
	Expression string
	Category   model.Category
	Priority   int
	Source     model.Source
	Regexp     *regexp.Regexp
}

// Snapshot is an immutable view of the enabled patterns, safe to share
// between concurrent parses. Later catalogue edits do not affect it.
type Snapshot struct {
	byCategory map[model.Category][]Compiled
	merchants  []string
}

// Snapshot returns the current immutable view of the catalogue. The view is
// rebuilt only after structural edits; counter updates do not invalidate it.
func (c *Catalogue) Snapshot() *Snapshot {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()
	if snap != nil {
		return snap
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil {
		return c.snap
	}
	snap = &Snapshot{
		byCategory: make(map[model.Category][]Compiled, len(model.Categories)),
		merchants:  slices.Clone(c.merchants),
	}
	for _, cat := range model.Categories {
		for _, e := range c.ordered(cat) {
			snap.byCategory[cat] = append(snap.byCategory[cat], Compiled{
				ID:         e.pattern.ID,
				Expression: e.pattern.Expression,
				Category:   cat,
				Priority:   e.pattern.Priority,
				Source:     e.pattern.Source,
				Regexp:     e.re,
			})
		}
	}
	c.snap = snap
	return snap
}

// PatternsFor returns the enabled patterns of a category in evaluation order.
func (s *Snapshot) PatternsFor(cat model.Category) []Compiled {
	return slices.Clone(s.byCategory[cat])
}

// Merchants returns the known merchant names.
func (s *Snapshot) Merchants() []string {
	return slices.Clone(s.merchants)
}
