// Package validate reconciles the candidates of all detection methods into
// one amount with a confidence verdict.
package validate

import (
	"slices"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
)

// DefaultTrustPriority is the pattern priority above which a lone pattern
// match is trusted without a second method.
const DefaultTrustPriority = 90

// Policy tunes the reliability verdict.
type Policy struct {
	TrustPriority int
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{TrustPriority: DefaultTrustPriority}
}

type group struct {
	candidates []model.Candidate
	methods    []model.Method // distinct, precedence order
}

func (g *group) add(c model.Candidate) {
	g.candidates = append(g.candidates, c)
	if !slices.Contains(g.methods, c.Method) {
		g.methods = append(g.methods, c.Method)
		slices.SortFunc(g.methods, func(a, b model.Method) int { return a.Rank() - b.Rank() })
	}
}

func (g *group) has(m model.Method) bool {
	return slices.Contains(g.methods, m)
}

// trusted reports whether a pattern candidate in g outranks the threshold.
func (g *group) trusted(threshold int) bool {
	for _, c := range g.candidates {
		if c.Method == model.MethodPattern && c.Priority > threshold {
			return true
		}
	}
	return false
}

// beats orders groups: more agreeing methods, then pattern support, then
// more candidates. Equal groups keep first appearance.
func (g *group) beats(o *group) bool {
	if len(g.methods) != len(o.methods) {
		return len(g.methods) > len(o.methods)
	}
	if ga, oa := g.has(model.MethodPattern), o.has(model.MethodPattern); ga != oa {
		return ga
	}
	return len(g.candidates) > len(o.candidates)
}

// CrossValidate picks the final amount from cands. Confidence is the share of
// methods with at least one candidate that agree on it; ran is only reported.
func CrossValidate(cands []model.Candidate, ran []model.Method, policy Policy) model.ParseResult {
	res := model.ParseResult{
		Level:      model.ConfidencePoor,
		Ran:        slices.Clone(ran),
		Candidates: cands,
	}

	// Group candidates by value at cent precision.
	groups := make(map[string]*group)
	var groupOrder []string
	var producing []model.Method
	for _, c := range cands {
		if !slices.Contains(producing, c.Method) {
			producing = append(producing, c.Method)
		}
		k := money.Format(c.Value)
		g, seen := groups[k]
		if !seen {
			g = &group{}
			groups[k] = g
			groupOrder = append(groupOrder, k)
		}
		g.add(c)
	}
	if len(groupOrder) == 0 {
		return res
	}

	var best *group
	for _, k := range groupOrder {
		if g := groups[k]; best == nil || g.beats(best) {
			best = g
		}
	}

	res.Found = true
	res.Amount = best.candidates[0].Value.Round(2)
	res.Agreeing = slices.Clone(best.methods)
	res.Method = best.methods[0]
	res.Confidence = float64(len(best.methods)) / float64(len(producing))
	res.Level = model.LevelFor(res.Confidence)
	res.Reliable = len(best.methods) >= 2 || best.trusted(policy.TrustPriority)
	return res
}
