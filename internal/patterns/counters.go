package patterns

import (
	"strings"

	"github.com/cleared-dev/receipts/internal/model"
)

// Key identifies a pattern by content rather than by ID, so counters follow
// a pattern even when IDs are renumbered.
type Key struct {
	Category   model.Category
	Expression string // normalized
}

// NormalizeExpression lowercases expr and collapses whitespace.
func NormalizeExpression(expr string) string {
	return strings.Join(strings.Fields(strings.ToLower(expr)), " ")
}

// KeyOf returns the content key for an expression in a category.
func KeyOf(cat model.Category, expr string) Key {
	return Key{Category: cat, Expression: NormalizeExpression(expr)}
}

// Counters exports the counters of every pattern that has observations.
func (c *Catalogue) Counters() map[Key]model.Counters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[Key]model.Counters)
	for _, e := range c.entries {
		if e.pattern.Counters.Total() > 0 {
			out[e.key] = e.pattern.Counters
		}
	}
	return out
}

// ApplyCounters replaces the counters of patterns found in counts and
// returns how many matched. Keys with no matching pattern are ignored.
func (c *Catalogue) ApplyCounters(counts map[Key]model.Counters) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	applied := 0
	for k, v := range counts {
		if e, ok := c.byKey[k]; ok {
			e.pattern.Counters = v
			applied++
		}
	}
	return applied
}
