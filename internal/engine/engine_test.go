package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/receipts/internal/learn"
	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/patterns"
)

func newEngine(t *testing.T, catalogue string, opts Options) *Engine {
	t.Helper()
	c, err := patterns.Parse([]byte(catalogue))
	require.NoError(t, err)
	return New(c, nil, opts)
}

func withMethods(methods ...model.Method) Options {
	opts := DefaultOptions()
	opts.Detect.Methods = methods
	return opts
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParse_TotalTTC(t *testing.T) {
	e := newEngine(t, "amount_patterns:\n  - pattern: 'TOTAL\\s*TTC'\n    priority: 10\n", DefaultOptions())
	res := e.Parse("TOTAL TTC 25.80")

	require.True(t, res.Found)
	assert.True(t, res.Amount.Equal(dec("25.80")))
	assert.Equal(t, model.MethodPattern, res.Method)
}

func TestParse_SinglePatternOnly(t *testing.T) {
	e := newEngine(t, "amount_patterns:\n  - pattern: 'NET\\s*A\\s*PAYER'\n    priority: 10\n",
		withMethods(model.MethodPattern, model.MethodPayment, model.MethodLargest))
	// Space decimal: only the anchored method reads it.
	res := e.Parse("NET A PAYER 12 50")

	require.True(t, res.Found)
	assert.Equal(t, model.MethodPattern, res.Method)
	assert.Equal(t, []model.Method{model.MethodPattern, model.MethodPayment, model.MethodLargest}, res.Ran)
	assert.Equal(t, model.ConfidenceExcellent, res.Level, "B and C ran but found nothing")
	assert.False(t, res.Reliable)

	// A second method reading another amount lowers the agreement.
	res = e.Parse("NET A PAYER 12 50\nREMISE 3.00")
	assert.True(t, res.Amount.Equal(dec("12.50")))
	assert.Contains(t, []model.ConfidenceLevel{model.ConfidencePoor, model.ConfidencePartial}, res.Level)
	assert.False(t, res.Reliable)
}

func TestParse_SilentMethodKeepsAgreement(t *testing.T) {
	catalogue := `amount_patterns:
  - pattern: 'TOTAL'
payment_patterns:
  - pattern: 'CB'
`
	e := newEngine(t, catalogue, DefaultOptions())
	res := e.Parse("TOTAL 12 50\nCB 12 50")

	require.True(t, res.Found)
	assert.True(t, res.Amount.Equal(dec("12.50")))
	assert.Equal(t, []model.Method{model.MethodPattern, model.MethodPayment}, res.Agreeing)
	assert.Len(t, res.Ran, 3)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, model.ConfidenceExcellent, res.Level)
	assert.True(t, res.Reliable)
}

func TestParse_PaymentAndTotalAgree(t *testing.T) {
	catalogue := `amount_patterns:
  - pattern: 'TOTAL'
payment_patterns:
  - pattern: 'CB'
`
	e := newEngine(t, catalogue, DefaultOptions())
	res := e.Parse("CB: 45.00 TOTAL: 45.00")

	require.True(t, res.Found)
	assert.True(t, res.Amount.Equal(dec("45.00")))
	assert.True(t, res.Reliable)
	assert.Contains(t, res.Agreeing, model.MethodPattern)
	assert.Contains(t, res.Agreeing, model.MethodPayment)
	assert.Contains(t, []model.ConfidenceLevel{model.ConfidenceGood, model.ConfidenceExcellent}, res.Level)
}

func TestParse_LargestOnly(t *testing.T) {
	e := newEngine(t, testCatalogue, withMethods(model.MethodLargest))
	res := e.Parse("BOULANGERIE\nPAIN 12.00\nGATEAU 58.30")

	require.True(t, res.Found)
	assert.True(t, res.Amount.Equal(dec("58.30")))
	assert.Equal(t, model.MethodLargest, res.Method)
	assert.False(t, res.Reliable)
}

func TestParse_NotFound(t *testing.T) {
	e := newEngine(t, testCatalogue, DefaultOptions())
	res := e.Parse("MERCI DE VOTRE VISITE")

	assert.False(t, res.Found)
	assert.ErrorIs(t, res.Err(), model.ErrNoAmountFound)
	assert.Equal(t, model.ConfidencePoor, res.Level)
	assert.False(t, res.Reliable)
	assert.False(t, res.DateFound)
	assert.True(t, res.Date.IsZero())
}

func TestParse_LocaleVariants(t *testing.T) {
	e := newEngine(t, testCatalogue, withMethods(model.MethodPattern))
	for _, text := range []string{"TOTAL TTC 12 50", "TOTAL TTC 12,50", "TOTAL TTC 12.50"} {
		res := e.Parse(text)
		require.True(t, res.Found, text)
		assert.True(t, res.Amount.Equal(dec("12.50")), text)
	}
}

func TestParse_Hints(t *testing.T) {
	e := newEngine(t, testCatalogue, DefaultOptions())
	res := e.Parse(fullReceipt)

	assert.Equal(t, "CARREFOUR", res.Merchant)
	require.True(t, res.DateFound)
	assert.Equal(t, "2024-03-12", res.Date.Format("2006-01-02"))
	assert.Equal(t, []string{"TOTAL TTC 31,40", "CB 31,40"}, res.KeyLines)
	assert.True(t, res.Amount.Equal(dec("31.40")))
	assert.Equal(t, model.ConfidenceExcellent, res.Level)
	assert.Equal(t, "A+B+C", res.MethodTag())
}

func TestParse_UpdatesCounters(t *testing.T) {
	e := newEngine(t, testCatalogue, DefaultOptions())
	e.Parse(fullReceipt)

	total, _ := e.Catalogue().Pattern("amount-001")
	assert.Equal(t, model.Counters{Success: 1}, total.Counters)
	assert.Equal(t, int64(1), e.Tracker().Parses())
	assert.Equal(t, 1.0, e.Tracker().DetectionRate())
}

func TestParseSnapshot_Idempotent(t *testing.T) {
	e := newEngine(t, testCatalogue, DefaultOptions())
	snap := e.Catalogue().Snapshot()

	first := ParseSnapshot(fullReceipt, snap, DefaultOptions())
	e.Parse(fullReceipt) // mutates counters only
	second := ParseSnapshot(fullReceipt, snap, DefaultOptions())
	assert.Equal(t, first, second)

	assert.Equal(t, first, e.Parse(fullReceipt))
}

func TestEvaluate_RecordsNothing(t *testing.T) {
	e := newEngine(t, testCatalogue, DefaultOptions())

	res := e.Evaluate(fullReceipt)
	assert.True(t, res.Found)
	assert.Equal(t, int64(0), e.Tracker().Parses())
	for _, p := range e.Catalogue().All() {
		assert.Zero(t, p.Counters.Total(), p.ID)
	}
}

func TestParse_Concurrent(t *testing.T) {
	e := newEngine(t, testCatalogue, DefaultOptions())
	want := ParseSnapshot(fullReceipt, e.Catalogue().Snapshot(), DefaultOptions())

	var wg sync.WaitGroup
	results := make([]model.ParseResult, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Parse(fullReceipt)
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		assert.Equal(t, want, res)
	}
	total, _ := e.Catalogue().Pattern("amount-001")
	assert.Equal(t, 16, total.Counters.Success)
}

func TestCorrect_LearnsThenDetects(t *testing.T) {
	opts := DefaultOptions()
	e := newEngine(t, testCatalogue, opts)
	text := "EPICERIE\nNET A PAYER 19.99\nPOINTS FIDELITE 120.00"

	res := e.Parse(text)
	require.True(t, res.Amount.Equal(dec("120.00")), "only the largest number is found")
	require.False(t, res.Reliable)

	p, err := e.Correct(text, res, dec("19.99"), "r1")
	require.NoError(t, err)
	assert.Equal(t, `NET\s*A\s*PAYER`, p.Expression)
	assert.False(t, p.Enabled)

	// Pending patterns are never evaluated.
	again := e.Parse(text)
	assert.NotContains(t, again.WinningPatterns(), p.PatternID)

	require.NoError(t, e.Catalogue().Approve(p.PatternID))
	approved := e.Parse(text)
	assert.True(t, approved.Amount.Equal(dec("19.99")))
	assert.Contains(t, approved.WinningPatterns(), p.PatternID)
}

func TestCorrect_ScanError(t *testing.T) {
	e := newEngine(t, testCatalogue, DefaultOptions())
	text := "TOTAL TTC 1?.99"
	_, err := e.Correct(text, e.Parse(text), dec("19.99"), "r1")

	var nc *learn.NoContextError
	assert.True(t, errors.As(err, &nc))
	assert.Empty(t, e.Catalogue().Pending())
}

func TestDiscover(t *testing.T) {
	e := newEngine(t, testCatalogue, DefaultOptions())
	hints := e.Discover("A REGLER 4.00\nTOTAL TTC 4.00")
	require.Len(t, hints, 1)
	assert.Equal(t, "A REGLER", hints[0].Label)
}

const testCatalogue = `amount_patterns:
  - pattern: 'TOTAL\s*TTC'
    priority: 100
  - pattern: '\bTOTAL\b'
    priority: 60
payment_patterns:
  - pattern: '\bCB\b'
    priority: 70
known_merchants:
  - CARREFOUR
`

const fullReceipt = `CARREFOUR MARKET
12/03/2024 18:42
PAIN         1,20
LAIT         0,95
FROMAGE     29,25
TOTAL TTC   31,40
CB          31,40
MERCI`
