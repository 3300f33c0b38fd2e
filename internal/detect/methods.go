package detect

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
	"github.com/cleared-dev/receipts/internal/patterns"
)

var anchored = money.Options{SpaceDecimal: true}

// amountAfter returns the first positive amount starting within window bytes
// of offset from in line.
func amountAfter(line string, from, window int) (money.Token, bool) {
	for _, tok := range money.Scan(line[from:], anchored) {
		if tok.Start > window {
			break
		}
		if tok.Value.IsPositive() {
			tok.Start += from
			tok.End += from
			return tok, true
		}
	}
	return money.Token{}, false
}

// detectPatterns is method A: each enabled amount pattern contributes the
// amount following its first matching line, at most once per parse.
func detectPatterns(lines []string, snap *patterns.Snapshot, cfg Config) []model.Candidate {
	var out []model.Candidate
	for _, p := range snap.PatternsFor(model.CategoryAmount) {
		if c, ok := matchPattern(p, lines, cfg); ok {
			out = append(out, c)
		}
	}
	return out
}

func matchPattern(p patterns.Compiled, lines []string, cfg Config) (model.Candidate, bool) {
	window := cfg.window()
	for i, line := range lines {
		loc := p.Regexp.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if tok, ok := amountAfter(line, loc[1], window); ok {
			return patternCandidate(p, tok, line, i), true
		}
		if cfg.NextLine && i+1 < len(lines) {
			if tok, ok := amountAfter(lines[i+1], 0, window); ok {
				return patternCandidate(p, tok, lines[i+1], i+1), true
			}
		}
	}
	return model.Candidate{}, false
}

func patternCandidate(p patterns.Compiled, tok money.Token, line string, n int) model.Candidate {
	return model.Candidate{
		Value:      tok.Value,
		Method:     model.MethodPattern,
		PatternIDs: []string{p.ID},
		Priority:   p.Priority,
		Context:    line,
		Line:       n,
	}
}

// detectPayments is method B: the amount next to every payment keyword,
// summed into one candidate since split tenders add up to the total.
func detectPayments(lines []string, snap *patterns.Snapshot, cfg Config) []model.Candidate {
	type position struct{ line, start int }

	window := cfg.window()
	seen := make(map[position]bool)
	total := decimal.Zero
	var ids, contexts []string
	priority, first := 0, -1

	for i, line := range lines {
		for _, p := range snap.PatternsFor(model.CategoryPayment) {
			for _, loc := range p.Regexp.FindAllStringIndex(line, -1) {
				tok, ok := amountAfter(line, loc[1], window)
				if !ok || seen[position{i, tok.Start}] {
					continue
				}
				seen[position{i, tok.Start}] = true
				total = total.Add(tok.Value)
				ids = appendUnique(ids, p.ID)
				contexts = appendUnique(contexts, line)
				if first < 0 {
					first = i
				}
				if p.Priority > priority {
					priority = p.Priority
				}
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	return []model.Candidate{{
		Value:      total,
		Method:     model.MethodPayment,
		PatternIDs: ids,
		Priority:   priority,
		Context:    strings.Join(contexts, " | "),
		Line:       first,
	}}
}

// detectLargest is method C: the largest currency-shaped number anywhere.
func detectLargest(lines []string, _ *patterns.Snapshot, _ Config) []model.Candidate {
	var best money.Token
	bestLine := -1
	for i, line := range lines {
		tok, ok := money.Largest(money.Scan(line, money.Options{}))
		if !ok {
			continue
		}
		if bestLine < 0 || tok.Value.GreaterThan(best.Value) {
			best, bestLine = tok, i
		}
	}
	if bestLine < 0 || !best.Value.IsPositive() {
		return nil
	}
	return []model.Candidate{{
		Value:   best.Value,
		Method:  model.MethodLargest,
		Context: lines[bestLine],
		Line:    bestLine,
	}}
}

// detectFallback is method D: the most repeated amount, on the theory that a
// total is often printed more than once. Needs at least two occurrences;
// ties go to the larger value.
func detectFallback(lines []string, _ *patterns.Snapshot, _ Config) []model.Candidate {
	type tally struct {
		value decimal.Decimal
		count int
		line  int
	}
	counts := make(map[string]*tally)
	for i, line := range lines {
		for _, tok := range money.Scan(line, money.Options{}) {
			if !tok.Value.IsPositive() {
				continue
			}
			k := money.Format(tok.Value)
			if t, ok := counts[k]; ok {
				t.count++
				continue
			}
			counts[k] = &tally{value: tok.Value, count: 1, line: i}
		}
	}

	var all []*tally
	for _, t := range counts {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].value.GreaterThan(all[j].value)
	})
	if len(all) == 0 || all[0].count < 2 {
		return nil
	}
	return []model.Candidate{{
		Value:   all[0].value,
		Method:  model.MethodFallback,
		Context: lines[all[0].line],
		Line:    all[0].line,
	}}
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}
