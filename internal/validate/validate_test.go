package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/receipts/internal/model"
)

var abc = []model.Method{model.MethodPattern, model.MethodPayment, model.MethodLargest}

func cand(value string, m model.Method, priority int, ids ...string) model.Candidate {
	return model.Candidate{
		Value:      decimal.RequireFromString(value),
		Method:     m,
		Priority:   priority,
		PatternIDs: ids,
	}
}

func TestCrossValidate_NothingFound(t *testing.T) {
	res := CrossValidate(nil, abc, DefaultPolicy())
	assert.False(t, res.Found)
	assert.Equal(t, model.ConfidencePoor, res.Level)
	assert.Zero(t, res.Confidence)
	assert.False(t, res.Reliable)
	assert.Equal(t, model.MethodNone, res.Method)
	assert.ErrorIs(t, res.Err(), model.ErrNoAmountFound)
	assert.Equal(t, abc, res.Ran)
}

func TestCrossValidate_SinglePatternMatch(t *testing.T) {
	cands := []model.Candidate{cand("25.80", model.MethodPattern, 10, "amount-001")}
	res := CrossValidate(cands, abc, DefaultPolicy())

	assert.True(t, res.Found)
	assert.Equal(t, "25.80", res.Amount.StringFixed(2))
	assert.Equal(t, model.MethodPattern, res.Method)
	assert.Equal(t, 1.0, res.Confidence, "silent methods do not count")
	assert.Equal(t, model.ConfidenceExcellent, res.Level)
	assert.Equal(t, abc, res.Ran)
	assert.False(t, res.Reliable, "priority 10 is below the trust threshold")

	// A disagreeing method halves the agreement.
	res = CrossValidate(append(cands, cand("3.00", model.MethodLargest, 0)), abc, DefaultPolicy())
	assert.Equal(t, "25.80", res.Amount.StringFixed(2))
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
	assert.Equal(t, model.ConfidencePartial, res.Level)
}

func TestCrossValidate_TrustedPattern(t *testing.T) {
	cands := []model.Candidate{cand("25.80", model.MethodPattern, 100, "amount-001")}
	res := CrossValidate(cands, abc, DefaultPolicy())
	assert.True(t, res.Reliable)

	res = CrossValidate(cands, abc, Policy{TrustPriority: 100})
	assert.False(t, res.Reliable, "threshold is exclusive")
}

func TestCrossValidate_PatternAndPaymentAgree(t *testing.T) {
	cands := []model.Candidate{
		cand("45.00", model.MethodPattern, 60, "amount-001"),
		cand("45.00", model.MethodPayment, 70, "payment-001"),
	}
	res := CrossValidate(cands, abc, DefaultPolicy())
	assert.True(t, res.Reliable)
	assert.Equal(t, model.MethodPattern, res.Method)
	assert.Equal(t, []model.Method{model.MethodPattern, model.MethodPayment}, res.Agreeing)
	assert.Equal(t, model.ConfidenceExcellent, res.Level, "C ran but found nothing")
	assert.Equal(t, "A+B", res.MethodTag())

	res = CrossValidate(append(cands, cand("60.00", model.MethodLargest, 0)), abc, DefaultPolicy())
	assert.InDelta(t, 2.0/3, res.Confidence, 1e-9)
	assert.Equal(t, model.ConfidencePartial, res.Level)
}

func TestCrossValidate_ConfidenceMonotonic(t *testing.T) {
	one := []model.Candidate{
		cand("10.00", model.MethodPattern, 50),
		cand("11.00", model.MethodPayment, 50),
		cand("12.00", model.MethodLargest, 0),
	}
	two := []model.Candidate{
		cand("10.00", model.MethodPattern, 50),
		cand("10.00", model.MethodPayment, 50),
		cand("12.00", model.MethodLargest, 0),
	}
	three := []model.Candidate{
		cand("10.00", model.MethodPattern, 50),
		cand("10.00", model.MethodPayment, 50),
		cand("10.00", model.MethodLargest, 0),
	}

	c1 := CrossValidate(one, abc, DefaultPolicy()).Confidence
	c2 := CrossValidate(two, abc, DefaultPolicy()).Confidence
	c3 := CrossValidate(three, abc, DefaultPolicy()).Confidence
	assert.Less(t, c1, c2)
	assert.Less(t, c2, c3)
	assert.Equal(t, 1.0, c3)
}

func TestCrossValidate_MostMethodsWin(t *testing.T) {
	cands := []model.Candidate{
		cand("99.00", model.MethodPattern, 100),
		cand("99.00", model.MethodPattern, 90),
		cand("45.00", model.MethodPayment, 70),
		cand("45.00", model.MethodLargest, 0),
	}
	res := CrossValidate(cands, abc, DefaultPolicy())
	assert.Equal(t, "45.00", res.Amount.StringFixed(2))
	assert.Equal(t, model.MethodPayment, res.Method)
	assert.Len(t, res.Candidates, 4, "all candidates kept for diagnostics")
}

func TestCrossValidate_TieBreaks(t *testing.T) {
	// Equal method counts: the group backed by a pattern match wins.
	res := CrossValidate([]model.Candidate{
		cand("58.30", model.MethodLargest, 0),
		cand("12.00", model.MethodPattern, 50),
	}, abc, DefaultPolicy())
	assert.Equal(t, "12.00", res.Amount.StringFixed(2))

	// Both backed by patterns: more candidates wins.
	res = CrossValidate([]model.Candidate{
		cand("12.00", model.MethodPattern, 50),
		cand("14.00", model.MethodPattern, 50),
		cand("14.00", model.MethodPattern, 40),
	}, abc, DefaultPolicy())
	assert.Equal(t, "14.00", res.Amount.StringFixed(2))
	assert.False(t, res.Reliable, "two patterns are still one method")

	// Fully tied: first appearance wins.
	res = CrossValidate([]model.Candidate{
		cand("7.00", model.MethodPayment, 50),
		cand("8.00", model.MethodLargest, 0),
	}, abc, DefaultPolicy())
	assert.Equal(t, "7.00", res.Amount.StringFixed(2))
}

func TestCrossValidate_LargestOnly(t *testing.T) {
	cands := []model.Candidate{cand("58.30", model.MethodLargest, 0)}
	res := CrossValidate(cands, []model.Method{model.MethodLargest}, DefaultPolicy())
	assert.Equal(t, "58.30", res.Amount.StringFixed(2))
	assert.Equal(t, model.MethodLargest, res.Method)
	assert.False(t, res.Reliable)
}

func TestCrossValidate_ExactCentAgreement(t *testing.T) {
	cands := []model.Candidate{
		cand("45.00", model.MethodPattern, 50),
		cand("45.01", model.MethodPayment, 50),
	}
	res := CrossValidate(cands, abc, DefaultPolicy())
	assert.Len(t, res.Agreeing, 1)
	assert.False(t, res.Reliable)

	cands[1] = cand("45.0", model.MethodPayment, 50)
	res = CrossValidate(cands, abc, DefaultPolicy())
	assert.Len(t, res.Agreeing, 2, "45.0 and 45.00 are the same amount")
}
