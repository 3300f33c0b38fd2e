package diagnostics

import (
	"fmt"
	"sort"

	"github.com/cleared-dev/receipts/internal/model"
)

// Thresholds for classifying patterns in a report.
const (
	ProblematicMinObservations = 3
	ProblematicMaxRate         = 0.5
	ReliableMinObservations    = 5
	ReliableMinRate            = 0.7
)

// PatternStats is one pattern's track record.
type PatternStats struct {
	ID          string
	Expression  string
	Category    model.Category
	Enabled     bool
	Source      model.Source
	Counters    model.Counters
	SuccessRate float64
	Score       float64
	Tier        model.ReliabilityTier
}

// Report is a read-only snapshot of counters and rates.
type Report struct {
	Parses          int64
	DetectionRate   float64
	ReliableRate    float64
	Patterns        []PatternStats // by score, best first
	Problematic     []PatternStats
	Reliable        []PatternStats
	Recommendations []string
}

// Report builds a snapshot from the catalogue counters and running rates.
func (t *Tracker) Report() Report {
	r := Report{
		Parses:        t.Parses(),
		DetectionRate: t.DetectionRate(),
		ReliableRate:  t.ReliableRate(),
	}
	for _, p := range t.catalogue.All() {
		ps := PatternStats{
			ID:          p.ID,
			Expression:  p.Expression,
			Category:    p.Category,
			Enabled:     p.Enabled,
			Source:      p.Source,
			Counters:    p.Counters,
			SuccessRate: p.Counters.SuccessRate(),
			Score:       p.Counters.ReliabilityScore(),
			Tier:        p.Tier(),
		}
		r.Patterns = append(r.Patterns, ps)
		total := p.Counters.Total()
		if total >= ProblematicMinObservations && ps.SuccessRate < ProblematicMaxRate {
			r.Problematic = append(r.Problematic, ps)
		}
		if total >= ReliableMinObservations && ps.SuccessRate > ReliableMinRate {
			r.Reliable = append(r.Reliable, ps)
		}
	}
	sort.SliceStable(r.Patterns, func(i, j int) bool {
		return r.Patterns[i].Score > r.Patterns[j].Score
	})
	r.Recommendations = recommend(r)
	return r
}

func recommend(r Report) []string {
	var recs []string
	if r.Parses > 0 && r.DetectionRate < 0.5 {
		recs = append(recs, fmt.Sprintf("Low detection rate (%.0f%%): review the amount patterns.", r.DetectionRate*100))
	}
	for _, p := range r.Problematic {
		recs = append(recs, fmt.Sprintf("Pattern %s succeeds %.0f%% of %d times: consider disabling it.",
			p.ID, p.SuccessRate*100, p.Counters.Total()))
	}
	if len(r.Reliable) == 0 {
		recs = append(recs, "No reliable pattern yet: correct a few receipts to build evidence.")
	}
	return recs
}
