package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		ratio float64
		want  ConfidenceLevel
	}{
		{1.0, ConfidenceExcellent},
		{0.9, ConfidenceExcellent},
		{0.89, ConfidenceGood},
		{0.7, ConfidenceGood},
		{2.0 / 3.0, ConfidencePartial},
		{0.5, ConfidencePartial},
		{1.0 / 3.0, ConfidencePoor},
		{0, ConfidencePoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.ratio), "LevelFor(%v)", tt.ratio)
	}
}

func TestCountersTier(t *testing.T) {
	tests := []struct {
		c    Counters
		want ReliabilityTier
	}{
		{Counters{}, TierLow},
		{Counters{Success: 9}, TierLow},
		{Counters{Success: 5, Failure: 5}, TierMedium},
		{Counters{Success: 49}, TierMedium},
		{Counters{Success: 40, Failure: 10}, TierHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.c.Tier(), "%+v", tt.c)
	}
}

func TestCountersReliabilityScore(t *testing.T) {
	assert.InDelta(t, 0.0, Counters{}.ReliabilityScore(), 0.0001)
	assert.InDelta(t, 0.4, Counters{Success: 4, Failure: 1}.ReliabilityScore(), 0.0001)
	assert.InDelta(t, 0.75, Counters{Success: 15, Failure: 5}.ReliabilityScore(), 0.0001)
}

func TestMethodRank(t *testing.T) {
	assert.Less(t, MethodPattern.Rank(), MethodPayment.Rank())
	assert.Less(t, MethodPayment.Rank(), MethodLargest.Rank())
	assert.Less(t, MethodLargest.Rank(), MethodFallback.Rank())
	assert.False(t, Method("E").Valid())
}

func TestParseResultErr(t *testing.T) {
	assert.ErrorIs(t, ParseResult{}.Err(), ErrNoAmountFound)
	assert.NoError(t, ParseResult{Found: true, Amount: decimal.RequireFromString("1.00")}.Err())
}

func TestMethodTag(t *testing.T) {
	r := ParseResult{Agreeing: []Method{MethodPattern, MethodPayment}}
	assert.Equal(t, "A+B", r.MethodTag())
	assert.Equal(t, "NONE", ParseResult{}.MethodTag())
}
