package model

import "time"

// Category groups patterns by what they locate in a receipt.
type Category string

const (
	CategoryAmount  Category = "amount"
	CategoryPayment Category = "payment"
)

// Categories lists every category in catalogue order.
var Categories = []Category{CategoryAmount, CategoryPayment}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryAmount || c == CategoryPayment
}

// Source records where a pattern came from.
type Source string

const (
	SourceCurated Source = "curated"
	SourceLearned Source = "learned"
)

// Pattern is a named regular expression used to locate a monetary value in text.
type Pattern struct {
	ID          string
	Expression  string
	Category    Category
	Priority    int // higher is tried first
	Enabled     bool
	Description string
	Source      Source
	LearnedFrom string    // receipt reference for learned patterns
	LearnedAt   time.Time // zero for curated patterns
	Counters    Counters
}

// Counters are the monotonic outcome counts of a pattern.
type Counters struct {
	Success int
	Failure int
}

// Total returns the number of recorded observations.
func (c Counters) Total() int {
	return c.Success + c.Failure
}

// SuccessRate returns Success/Total, or 0 when nothing was observed.
func (c Counters) SuccessRate() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Success) / float64(total)
}

// ReliabilityScore weights the success rate by how much evidence exists,
// reaching full weight at 10 observations.
func (c Counters) ReliabilityScore() float64 {
	weight := float64(c.Total()) / 10
	if weight > 1 {
		weight = 1
	}
	return c.SuccessRate() * weight
}

// ReliabilityTier classifies a pattern's track record.
type ReliabilityTier string

const (
	TierHigh   ReliabilityTier = "high"
	TierMedium ReliabilityTier = "medium"
	TierLow    ReliabilityTier = "low"
)

// Observation thresholds for the reliability tiers.
const (
	HighTierObservations   = 50
	MediumTierObservations = 10
)

// Tier derives the reliability tier from the counters. It is never stored.
func (c Counters) Tier() ReliabilityTier {
	switch total := c.Total(); {
	case total >= HighTierObservations:
		return TierHigh
	case total >= MediumTierObservations:
		return TierMedium
	default:
		return TierLow
	}
}

// Tier is shorthand for p.Counters.Tier().
func (p Pattern) Tier() ReliabilityTier {
	return p.Counters.Tier()
}
